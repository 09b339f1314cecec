package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"dubber/internal/config"
)

// LogFileName is the file written under paths.log_dir.
const LogFileName = "dubber.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// OutputPaths accepts "stdout", "stderr" or file paths. Empty means stderr.
	OutputPaths []string
	// Color forces ANSI level colours on or off. Nil enables colour only when
	// the sole output is a terminal.
	Color *bool
}

// New constructs a slog logger. Debug level adds source locations.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))
	addSource := levelVar.Level() <= slog.LevelDebug

	sinks, err := openSinks(opts.OutputPaths)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		return slog.New(newJSONHandler(sinks.writer(), levelVar, addSource)), nil
	case "", "console":
		color := sinks.terminal()
		if opts.Color != nil {
			color = *opts.Color
		}
		return slog.New(newPrettyHandler(sinks.writer(), levelVar, addSource, color)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewFromConfig builds the CLI logger from [logging]. When paths.log_dir is
// set, records also go to LogFileName inside it.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info"})
	}
	outputs := []string{"stderr"}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		outputs = append(outputs, filepath.Join(dir, LogFileName))
	}
	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
	})
}

func parseLevel(level string) slog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return slog.LevelWarn
	}
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return parsed
}

type sinkSet struct {
	files []*os.File
}

func openSinks(paths []string) (*sinkSet, error) {
	set := &sinkSet{}
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true

		var f *os.File
		switch path {
		case "stdout":
			f = os.Stdout
		case "stderr":
			f = os.Stderr
		default:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create log directory for %s: %w", path, err)
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", path, err)
			}
			f = file
		}
		set.files = append(set.files, f)
	}
	if len(set.files) == 0 {
		set.files = []*os.File{os.Stderr}
	}
	return set, nil
}

func (s *sinkSet) writer() io.Writer {
	if len(s.files) == 1 {
		return s.files[0]
	}
	writers := make([]io.Writer, len(s.files))
	for i, f := range s.files {
		writers[i] = f
	}
	return io.MultiWriter(writers...)
}

// terminal reports whether the only sink is an interactive terminal.
func (s *sinkSet) terminal() bool {
	if len(s.files) != 1 {
		return false
	}
	fd := s.files[0].Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
