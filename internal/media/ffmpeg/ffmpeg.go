package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"dubber/internal/logging"
	"dubber/internal/media/ffprobe"
	"dubber/internal/process"
	"dubber/internal/services"
)

const defaultTimeout = time.Hour

// Tool runs ffmpeg for audio extraction and conversion.
type Tool struct {
	binary  string
	runner  process.Runner
	prober  *ffprobe.Prober
	timeout time.Duration
	logger  *slog.Logger
}

// Option customizes a Tool.
type Option func(*Tool)

// WithRunner injects the process runner (tests use a fake).
func WithRunner(r process.Runner) Option {
	return func(t *Tool) {
		if r != nil {
			t.runner = r
		}
	}
}

// WithProber sets the ffprobe wrapper used to check for an audio stream
// before extraction. Without one the check is skipped.
func WithProber(p *ffprobe.Prober) Option {
	return func(t *Tool) { t.prober = p }
}

// WithTimeout bounds each ffmpeg invocation.
func WithTimeout(d time.Duration) Option {
	return func(t *Tool) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// New constructs a Tool for the given ffmpeg binary.
func New(binary string, logger *slog.Logger, opts ...Option) *Tool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	t := &Tool{
		binary:  binary,
		runner:  process.NewExecRunner(),
		timeout: defaultTimeout,
		logger:  logging.NewComponentLogger(logger, "ffmpeg"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ExtractAudio writes the first audio track of video to dest as 16-bit PCM WAV
// at the requested rate and channel count.
func (t *Tool) ExtractAudio(ctx context.Context, video, dest string, sampleRate, channels int) error {
	if _, err := os.Stat(video); err != nil {
		return services.Wrap(services.ErrNotFound, "extracting", "stat video", video, err)
	}
	if t.prober != nil {
		probe, err := t.prober.Inspect(ctx, video)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "extracting", "ffprobe", "", err)
		}
		if !probe.HasAudio() {
			return services.Wrap(services.ErrValidation, "extracting", "ffprobe", "video has no audio stream", nil)
		}
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", video, "-vn", "-map", "0:a:0"}
	args = append(args, pcmArgs(sampleRate, channels)...)
	args = append(args, dest)
	if err := t.run(ctx, args); err != nil {
		return services.Wrap(services.ErrExternalTool, "extracting", "ffmpeg", "extract audio", err)
	}
	if err := requireOutput(dest); err != nil {
		return services.Wrap(services.ErrExternalTool, "extracting", "ffmpeg", "", err)
	}
	t.logger.Debug("audio extracted",
		logging.String(logging.FieldEventType, "audio_extract_complete"),
		logging.String("source", video),
		logging.String("dest", dest),
	)
	return nil
}

// ConvertWAV resamples and remixes src into a 16-bit PCM WAV at dest.
func (t *Tool) ConvertWAV(ctx context.Context, src, dest string, sampleRate, channels int) error {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", src}
	args = append(args, pcmArgs(sampleRate, channels)...)
	args = append(args, dest)
	if err := t.run(ctx, args); err != nil {
		return services.Wrap(services.ErrExternalTool, "compositing", "ffmpeg", "convert wav", err)
	}
	return requireOutput(dest)
}

func (t *Tool) run(ctx context.Context, args []string) error {
	cmd := process.Command{Name: t.binary, Args: args, Timeout: t.timeout}
	t.logger.Debug("executing ffmpeg", logging.String("command", cmd.String()))
	_, err := t.runner.Run(ctx, cmd)
	return err
}

func pcmArgs(sampleRate, channels int) []string {
	args := []string{"-acodec", "pcm_s16le"}
	if sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(sampleRate))
	}
	if channels > 0 {
		args = append(args, "-ac", strconv.Itoa(channels))
	}
	return args
}

func requireOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("ffmpeg did not produce %s: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("ffmpeg produced empty output %s", path)
	}
	return nil
}
