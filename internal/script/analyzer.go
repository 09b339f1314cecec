package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"dubber/internal/logging"
	"dubber/internal/services"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultMaxWait      = 30 * time.Minute
	deleteTimeout       = 30 * time.Second
)

// FileState is the processing state of an uploaded file.
type FileState string

const (
	FileStateProcessing FileState = "PROCESSING"
	FileStateActive     FileState = "ACTIVE"
	FileStateFailed     FileState = "FAILED"
)

// RemoteFile is a handle to media uploaded to the model provider.
type RemoteFile struct {
	Name     string
	URI      string
	MIMEType string
	State    FileState
}

// ModelService is the subset of the multimodal provider the analyzer needs.
type ModelService interface {
	UploadFile(ctx context.Context, path, mimeType string) (RemoteFile, error)
	GetFile(ctx context.Context, name string) (RemoteFile, error)
	DeleteFile(ctx context.Context, name string) error
	GenerateText(ctx context.Context, model string, file RemoteFile, prompt string) (string, error)
}

// Options controls one analysis call.
type Options struct {
	InputLanguage  string
	OutputLanguage string
	Model          string
	// PromptTemplate overrides the built-in analysis prompt when non-empty.
	PromptTemplate string
	PollInterval   time.Duration
	MaxWait        time.Duration
}

// ReadyTimeoutError reports an upload that never left PROCESSING.
type ReadyTimeoutError struct {
	File    string
	Waited  time.Duration
	MaxWait time.Duration
}

func (e *ReadyTimeoutError) Error() string {
	return fmt.Sprintf("file %s not ready after %s (limit %s)", e.File, e.Waited.Round(time.Second), e.MaxWait)
}

func (e *ReadyTimeoutError) Unwrap() error {
	return services.ErrTimeout
}

// ErrFileFailed reports that the provider rejected the uploaded media.
var ErrFileFailed = errors.New("uploaded file failed processing")

// Analyzer turns a video into a Script using a multimodal model.
type Analyzer struct {
	service ModelService
	logger  *slog.Logger
	sleep   func(context.Context, time.Duration) error
	now     func() time.Time
}

// AnalyzerOption customizes an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithSleeper overrides how poll waits are performed.
func WithSleeper(sleep func(context.Context, time.Duration) error) AnalyzerOption {
	return func(a *Analyzer) {
		if sleep != nil {
			a.sleep = sleep
		}
	}
}

// WithClock overrides the time source used for the ready deadline.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer constructs an analyzer backed by service.
func NewAnalyzer(service ModelService, logger *slog.Logger, opts ...AnalyzerOption) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	a := &Analyzer{
		service: service,
		logger:  logger.With(logging.String(logging.FieldComponent, "analyzer")),
		sleep:   sleepContext,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze uploads videoPath, waits for it to become usable, and returns the
// parsed script. The uploaded file is deleted before returning whenever the
// upload itself succeeded.
func (a *Analyzer) Analyze(ctx context.Context, videoPath string, opts Options) (script *Script, err error) {
	if a == nil || a.service == nil {
		return nil, services.Wrap(services.ErrConfiguration, "analyzing", "analyze", "model service unavailable", nil)
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "analyzing", "analyze", "analysis model not configured", nil)
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	logger := logging.WithContext(ctx, a.logger)
	file, err := a.service.UploadFile(ctx, videoPath, mimeTypeFor(videoPath))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "analyzing", "upload video", filepath.Base(videoPath), err)
	}
	logger.Info("video uploaded",
		logging.String(logging.FieldEventType, "upload_complete"),
		logging.String("file", file.Name),
	)
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
		defer cancel()
		if derr := a.service.DeleteFile(cleanupCtx, file.Name); derr != nil {
			logging.WarnWithContext(logger, "remote file cleanup failed",
				"analysis_cleanup",
				logging.String("file", file.Name),
				logging.Error(derr),
				logging.String(logging.FieldImpact, "uploaded video remains until the provider expires it"),
			)
		}
	}()

	file, err = a.waitReady(ctx, file, pollInterval, maxWait)
	if err != nil {
		return nil, err
	}

	prompt := RenderPrompt(opts.PromptTemplate, opts.InputLanguage, opts.OutputLanguage)
	text, err := a.service.GenerateText(ctx, opts.Model, file, prompt)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "analyzing", "generate script", opts.Model, err)
	}
	script, err = Parse(text, opts.OutputLanguage)
	if err != nil {
		return nil, err
	}
	logger.Info("script analysed",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.Int("segments", len(script.Segments)),
		logging.Int("speakers", len(script.Speakers())),
	)
	return script, nil
}

func (a *Analyzer) waitReady(ctx context.Context, file RemoteFile, interval, maxWait time.Duration) (RemoteFile, error) {
	started := a.now()
	for {
		switch file.State {
		case FileStateActive:
			return file, nil
		case FileStateFailed:
			return file, services.Wrap(services.ErrExternalTool, "analyzing", "wait for upload", file.Name, ErrFileFailed)
		}
		waited := a.now().Sub(started)
		if waited >= maxWait {
			return file, &ReadyTimeoutError{File: file.Name, Waited: waited, MaxWait: maxWait}
		}
		if err := a.sleep(ctx, interval); err != nil {
			return file, err
		}
		next, err := a.service.GetFile(ctx, file.Name)
		if err != nil {
			return file, services.Wrap(services.ErrTransient, "analyzing", "poll upload", file.Name, err)
		}
		file = next
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	case ".avi":
		return "video/x-msvideo"
	default:
		return "video/mp4"
	}
}
