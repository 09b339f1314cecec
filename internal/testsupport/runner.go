package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"dubber/internal/process"
)

// FakeRunner records every command and delegates to Handler when set.
type FakeRunner struct {
	mu      sync.Mutex
	calls   []process.Command
	Handler func(cmd process.Command) (process.Result, error)
}

// Run implements process.Runner.
func (f *FakeRunner) Run(ctx context.Context, cmd process.Command) (process.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	handler := f.Handler
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return process.Result{ExitCode: -1}, err
	}
	if handler == nil {
		return process.Result{}, nil
	}
	return handler(cmd)
}

// Calls returns a copy of the recorded commands.
func (f *FakeRunner) Calls() []process.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]process.Command(nil), f.calls...)
}

// WriteLastArg returns a handler that creates the file named by the final
// command argument, which is where ffmpeg and rubberband put their output.
func WriteLastArg(contents []byte) func(process.Command) (process.Result, error) {
	return func(cmd process.Command) (process.Result, error) {
		if len(cmd.Args) == 0 {
			return process.Result{}, nil
		}
		dest := cmd.Args[len(cmd.Args)-1]
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return process.Result{ExitCode: 1}, err
		}
		if err := os.WriteFile(dest, contents, 0o644); err != nil {
			return process.Result{ExitCode: 1}, err
		}
		return process.Result{}, nil
	}
}
