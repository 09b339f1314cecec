package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"dubber/internal/process"
)

// Requirement defines an external tool dubber runs.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, checkBinary(req))
	}
	return results
}

func checkBinary(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Path = path
	status.Available = true
	return status
}

// CheckPythonModule reports whether python can import module. The
// interpreter itself must be on PATH.
func CheckPythonModule(ctx context.Context, runner process.Runner, req Requirement, module string) Status {
	status := checkBinary(req)
	if !status.Available {
		return status
	}
	if runner == nil {
		runner = process.NewExecRunner()
	}
	_, err := runner.Run(ctx, process.Command{
		Name:    status.Command,
		Args:    []string{"-c", "import " + module},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		status.Available = false
		status.Detail = fmt.Sprintf("python module %q not importable", module)
	}
	return status
}
