package ffmpeg

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

// MuxRequest describes the inputs for replacing a video's audio track.
type MuxRequest struct {
	VideoPath  string // Source video; its video stream is re-encoded
	AudioPath  string // Mixed dub track (WAV)
	OutputPath string // Final file; written atomically
}

// Muxer replaces the audio track of a video using ffmpeg.
type Muxer struct {
	binary     string
	videoCodec string
	audioCodec string
	timeout    time.Duration
	runner     process.Runner
	logger     *slog.Logger
}

// NewMuxer constructs a muxer that encodes with the given codec pair.
func NewMuxer(binary, videoCodec, audioCodec string, logger *slog.Logger) *Muxer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if strings.TrimSpace(videoCodec) == "" {
		videoCodec = "libx264"
	}
	if strings.TrimSpace(audioCodec) == "" {
		audioCodec = "aac"
	}
	return &Muxer{
		binary:     binary,
		videoCodec: videoCodec,
		audioCodec: audioCodec,
		timeout:    defaultTimeout,
		runner:     process.NewExecRunner(),
		logger:     logging.NewComponentLogger(logger, "muxer"),
	}
}

// WithRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithRunner(r process.Runner) *Muxer {
	if m != nil && r != nil {
		m.runner = r
	}
	return m
}

// WithTimeout bounds the encode.
func (m *Muxer) WithTimeout(d time.Duration) *Muxer {
	if m != nil && d > 0 {
		m.timeout = d
	}
	return m
}

// Mux writes a new video with the audio track replaced.
// The operation is atomic: a temporary file is created and renamed on success.
func (m *Muxer) Mux(ctx context.Context, req MuxRequest) (string, error) {
	if m == nil {
		return "", fmt.Errorf("muxer not initialized")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return "", services.Wrap(services.ErrValidation, "muxing", "", "output path is required", nil)
	}
	for _, p := range []string{req.VideoPath, req.AudioPath} {
		if _, err := os.Stat(p); err != nil {
			return "", services.Wrap(services.ErrNotFound, "muxing", "stat input", p, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmpPath := tempOutputPath(req.OutputPath)
	cmd := process.Command{Name: m.binary, Args: m.buildArgs(req, tmpPath), Timeout: m.timeout}
	m.logger.Debug("executing ffmpeg mux",
		logging.String("video", req.VideoPath),
		logging.String("audio", req.AudioPath),
		logging.String("command", cmd.String()),
	)

	started := time.Now()
	if _, err := m.runner.Run(ctx, cmd); err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrExternalTool, "muxing", "ffmpeg", "mux failed", err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "muxing", "ffmpeg", "no output file produced", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("move muxed output into place: %w", err)
	}

	m.logger.Info("dubbed video written",
		logging.String(logging.FieldEventType, "mux_complete"),
		logging.String("output", req.OutputPath),
		logging.String("video_codec", m.videoCodec),
		logging.String("audio_codec", m.audioCodec),
		logging.Duration("elapsed", time.Since(started)),
	)
	return req.OutputPath, nil
}

func (m *Muxer) buildArgs(req MuxRequest, outputPath string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", m.videoCodec,
		"-c:a", m.audioCodec,
		outputPath,
	}
}

// tempOutputPath keeps the real extension last so ffmpeg can pick the container.
func tempOutputPath(output string) string {
	dir := filepath.Dir(output)
	base := filepath.Base(output)
	ext := filepath.Ext(base)
	return filepath.Join(dir, ".mux-"+strings.TrimSuffix(base, ext)+".tmp"+ext)
}
