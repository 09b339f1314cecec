package dubbing

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"dubber/internal/config"
	"dubber/internal/media/ffmpeg"
	"dubber/internal/media/ffprobe"
	"dubber/internal/media/wavio"
	"dubber/internal/notifications"
	"dubber/internal/process"
	"dubber/internal/progress"
	"dubber/internal/publish"
	"dubber/internal/script"
	"dubber/internal/separation"
	"dubber/internal/services"
	"dubber/internal/services/gemini"
	"dubber/internal/services/openaitts"
	"dubber/internal/timeline"
	"dubber/internal/tts"
	"dubber/internal/voices"
)

// DefaultStaleAfter is how old an idle run directory must be before a new
// run sweeps it away.
const DefaultStaleAfter = 24 * time.Hour

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	runner     process.Runner
	httpClient *http.Client
	models     script.ModelService
	speech     tts.SpeechModel
}

// WithRunner replaces the process runner used for ffmpeg, ffprobe, demucs
// and rubberband.
func WithRunner(r process.Runner) BuildOption {
	return func(o *buildOptions) { o.runner = r }
}

// WithHTTPClient sets the HTTP client for the model providers.
func WithHTTPClient(c *http.Client) BuildOption {
	return func(o *buildOptions) { o.httpClient = c }
}

// WithModelService replaces the analysis model client.
func WithModelService(m script.ModelService) BuildOption {
	return func(o *buildOptions) { o.models = m }
}

// WithSpeechModel replaces the speech model client.
func WithSpeechModel(m tts.SpeechModel) BuildOption {
	return func(o *buildOptions) { o.speech = m }
}

// Build wires the production pipeline from cfg. Progress messages go to sink.
func Build(ctx context.Context, cfg *config.Config, sink progress.Sink, logger *slog.Logger, options ...BuildOption) (*Pipeline, error) {
	var bo buildOptions
	for _, opt := range options {
		opt(&bo)
	}
	if bo.runner == nil {
		bo.runner = process.NewExecRunner()
	}
	if sink == nil {
		sink = progress.Discard
	}

	prompt, err := cfg.AnalysisPrompt()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "analysis prompt", "", err)
	}

	geminiClient, err := geminiFor(ctx, cfg, bo)
	if err != nil {
		return nil, err
	}
	models := bo.models
	if models == nil {
		models = geminiClient
	}
	speech, err := speechFor(cfg, bo, geminiClient)
	if err != nil {
		return nil, err
	}

	mediaTimeout := time.Duration(cfg.Media.TimeoutMinutes) * time.Minute
	prober := ffprobe.NewProber(cfg.Media.FFprobeBinary, bo.runner)
	tool := ffmpeg.New(cfg.Media.FFmpegBinary, logger,
		ffmpeg.WithRunner(bo.runner),
		ffmpeg.WithProber(prober),
		ffmpeg.WithTimeout(mediaTimeout),
	)
	muxer := ffmpeg.NewMuxer(cfg.Media.FFmpegBinary, cfg.Media.VideoCodec, cfg.Media.AudioCodec, logger).
		WithRunner(bo.runner).
		WithTimeout(mediaTimeout)

	format := wavio.Format{SampleRate: cfg.Timeline.SampleRate, Channels: cfg.Timeline.Channels}
	stretcher := timeline.NewRubberband(cfg.Timeline.RubberbandBinary, bo.runner,
		time.Duration(cfg.Timeline.StretchTimeoutSeconds)*time.Second)

	interval := time.Duration(cfg.TTS.RequestIntervalMS) * time.Millisecond
	if cfg.TTS.RequestIntervalMS == 0 {
		interval = -1
	}

	deps := Deps{
		Extractor: tool,
		Analyzer:  script.NewAnalyzer(models, logger),
		Assigner:  voices.NewFromConfig(cfg.Voices),
		Synth: tts.NewSynthesizer(speech, sink, logger, tts.Options{
			SampleRate:      cfg.TTS.SampleRate,
			Channels:        cfg.TTS.Channels,
			RequestInterval: interval,
		}),
		Compositor: timeline.NewCompositor(format, stretcher, tool, sink, logger),
		Muxer:      muxer,
		Prober:     prober,
		Notifier:   notifications.NewService(cfg),
		Sink:       sink,
	}
	if cfg.Separation.Enabled {
		deps.Separator = separation.New(separation.Config{
			Command: cfg.Separation.Command,
			Model:   cfg.Separation.Model,
			Timeout: time.Duration(cfg.Separation.TimeoutMinutes) * time.Minute,
		}, bo.runner, logger)
	}
	if cfg.Storage.Enabled {
		publisher, err := publish.New(publish.FromConfig(cfg.Storage), logger)
		if err != nil {
			return nil, err
		}
		deps.Publisher = publisher
	}

	return New(deps, Options{
		WorkDir:     cfg.Paths.WorkDir,
		OutputDir:   cfg.Paths.OutputDir,
		KeepWorkDir: cfg.Paths.KeepWorkDir,
		SaveAudio:   cfg.Paths.SaveAudio,
		StaleAfter:  DefaultStaleAfter,
		Format:      format,
		Analysis:    analysisOptions(cfg, prompt),
	}, logger)
}

// BuildAnalyzer wires only the script analysis step. The returned options
// carry the model settings; callers fill in the languages.
func BuildAnalyzer(ctx context.Context, cfg *config.Config, logger *slog.Logger, options ...BuildOption) (*script.Analyzer, script.Options, error) {
	var bo buildOptions
	for _, opt := range options {
		opt(&bo)
	}
	prompt, err := cfg.AnalysisPrompt()
	if err != nil {
		return nil, script.Options{}, services.Wrap(services.ErrConfiguration, "", "analysis prompt", "", err)
	}
	models := bo.models
	if models == nil {
		client, err := newGemini(ctx, cfg, bo)
		if err != nil {
			return nil, script.Options{}, err
		}
		models = client
	}
	return script.NewAnalyzer(models, logger), analysisOptions(cfg, prompt), nil
}

func analysisOptions(cfg *config.Config, prompt string) script.Options {
	return script.Options{
		Model:          cfg.Gemini.AnalysisModel,
		PromptTemplate: prompt,
		PollInterval:   time.Duration(cfg.Gemini.PollIntervalSeconds) * time.Second,
		MaxWait:        time.Duration(cfg.Gemini.MaxWaitMinutes) * time.Minute,
	}
}

// geminiFor returns nil when both model roles are injected.
func geminiFor(ctx context.Context, cfg *config.Config, bo buildOptions) (*gemini.Client, error) {
	needSpeech := bo.speech == nil && cfg.TTS.Provider != "openai"
	if bo.models != nil && !needSpeech {
		return nil, nil
	}
	return newGemini(ctx, cfg, bo)
}

func newGemini(ctx context.Context, cfg *config.Config, bo buildOptions) (*gemini.Client, error) {
	return gemini.New(ctx, gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		UseVertex:      cfg.Gemini.UseVertex,
		Project:        cfg.Gemini.Project,
		Location:       cfg.Gemini.Location,
		TTSModel:       cfg.Gemini.TTSModel,
		RequestTimeout: time.Duration(cfg.Gemini.RequestTimeoutSeconds) * time.Second,
		HTTPClient:     bo.httpClient,
	})
}

func speechFor(cfg *config.Config, bo buildOptions, geminiClient *gemini.Client) (tts.SpeechModel, error) {
	if bo.speech != nil {
		return bo.speech, nil
	}
	if cfg.TTS.Provider == "openai" {
		client, err := openaitts.New(openaitts.Config{
			APIKey:     cfg.TTS.OpenAIAPIKey,
			BaseURL:    cfg.TTS.OpenAIBaseURL,
			Model:      cfg.TTS.OpenAIModel,
			HTTPClient: bo.httpClient,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return geminiClient, nil
}
