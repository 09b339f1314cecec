package timeline

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dubber/internal/process"
	"dubber/internal/services"
)

const defaultStretchTimeout = 2 * time.Minute

// Stretcher changes a clip's tempo without changing its pitch. A ratio
// above 1 shortens the clip.
type Stretcher interface {
	Stretch(ctx context.Context, src, dest string, ratio float64) error
}

// Rubberband stretches clips with the rubberband command-line tool.
type Rubberband struct {
	binary  string
	runner  process.Runner
	timeout time.Duration
}

// NewRubberband constructs a stretcher. Empty binary means "rubberband".
func NewRubberband(binary string, runner process.Runner, timeout time.Duration) *Rubberband {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "rubberband"
	}
	if runner == nil {
		runner = process.NewExecRunner()
	}
	if timeout <= 0 {
		timeout = defaultStretchTimeout
	}
	return &Rubberband{binary: binary, runner: runner, timeout: timeout}
}

// Stretch implements Stretcher.
func (r *Rubberband) Stretch(ctx context.Context, src, dest string, ratio float64) error {
	if ratio <= 0 {
		return services.Wrap(services.ErrValidation, "compositing", "stretch", fmt.Sprintf("invalid ratio %v", ratio), nil)
	}
	cmd := process.Command{
		Name:    r.binary,
		Args:    []string{"--tempo", strconv.FormatFloat(ratio, 'f', 4, 64), src, dest},
		Timeout: r.timeout,
	}
	if _, err := r.runner.Run(ctx, cmd); err != nil {
		return services.Wrap(services.ErrExternalTool, "compositing", "rubberband", "", err)
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "compositing", "rubberband", "no output produced", err)
	}
	return nil
}
