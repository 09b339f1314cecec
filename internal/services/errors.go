package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool   = errors.New("external tool error")
	ErrValidation     = errors.New("validation error")
	ErrConfiguration  = errors.New("configuration error")
	ErrAuthentication = errors.New("authentication error")
	ErrNotFound       = errors.New("not found")
	ErrTimeout        = errors.New("timeout")
	ErrTransient      = errors.New("transient failure")
)

// Wrap tags err with marker and prefixes it with the stage, operation and
// message that produced it. A nil marker means ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinDetail(stage, operation, message)
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

type failureClass struct {
	marker error
	code   int
	hint   string
}

// Order matters: the first matching marker decides.
var failureClasses = []failureClass{
	{ErrValidation, 2, "check the command arguments and the script file"},
	{ErrConfiguration, 2, "run `dubber config validate --remote` to inspect the configuration"},
	{ErrAuthentication, 3, "check the API keys in the config file or .env"},
	{ErrTimeout, 4, "raise the matching timeout in the config file or retry later"},
	{ErrExternalTool, 1, "run `dubber doctor` to verify ffmpeg, rubberband and demucs"},
}

func classify(err error) (failureClass, bool) {
	for _, c := range failureClasses {
		if errors.Is(err, c.marker) {
			return c, true
		}
	}
	return failureClass{}, false
}

// ExitCode maps a run error to the process exit status reported by the CLI.
// Unclassified errors exit with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if c, ok := classify(err); ok {
		return c.code
	}
	return 1
}

// Hint suggests what the operator should try next, or "" when nothing
// specific applies.
func Hint(err error) string {
	if c, ok := classify(err); ok && err != nil {
		return c.hint
	}
	return ""
}

func joinDetail(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "dubber failure"
	}
	return strings.Join(kept, ": ")
}
