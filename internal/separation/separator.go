package separation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dubber/internal/logging"
	"dubber/internal/process"
	"dubber/internal/services"
)

// BackgroundStem is the file demucs writes for everything except vocals when
// run with --two-stems vocals.
const BackgroundStem = "no_vocals.wav"

// Config describes the demucs invocation.
type Config struct {
	Command string        // Python interpreter, usually python3
	Model   string        // demucs model name, e.g. htdemucs
	Timeout time.Duration // Zero means no limit beyond ctx
}

// Separator runs demucs through a process.Runner.
type Separator struct {
	cfg    Config
	runner process.Runner
	logger *slog.Logger
}

// New constructs a Separator. A nil runner uses process.ExecRunner.
func New(cfg Config, runner process.Runner, logger *slog.Logger) *Separator {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = "python3"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "htdemucs"
	}
	if runner == nil {
		runner = process.NewExecRunner()
	}
	return &Separator{cfg: cfg, runner: runner, logger: logging.NewComponentLogger(logger, "separator")}
}

// StemPath returns where demucs deposits the background stem for audioPath.
func (s *Separator) StemPath(audioPath, outDir string) string {
	base := filepath.Base(audioPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, s.cfg.Model, name, BackgroundStem)
}

// Separate runs demucs on audioPath and returns the background stem path.
func (s *Separator) Separate(ctx context.Context, audioPath, outDir string) (string, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return "", services.Wrap(services.ErrNotFound, "separating", "stat audio", audioPath, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create separation dir: %w", err)
	}

	cmd := process.Command{
		Name:    s.cfg.Command,
		Args:    []string{"-m", "demucs.separate", "-n", s.cfg.Model, "-o", outDir, "--two-stems", "vocals", audioPath},
		Timeout: s.cfg.Timeout,
	}
	s.logger.Info("separating background stem",
		logging.String(logging.FieldEventType, "separation_start"),
		logging.String("audio", audioPath),
		logging.String("model", s.cfg.Model),
	)

	res, err := s.runner.Run(ctx, cmd)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "separating", "demucs", "", err)
	}

	stem := s.StemPath(audioPath, outDir)
	if _, err := os.Stat(stem); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "separating", "demucs",
			fmt.Sprintf("expected stem %s not produced", stem), err)
	}

	s.logger.Info("background stem ready",
		logging.String(logging.FieldEventType, "separation_complete"),
		logging.String("stem", stem),
		logging.Duration("elapsed", res.Duration),
	)
	return stem, nil
}
