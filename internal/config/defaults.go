package config

const (
	defaultConfigPath            = "~/.config/dubber/config.toml"
	defaultWorkDir               = "~/.local/share/dubber/work"
	defaultOutputDir             = "~/.local/share/dubber/output"
	defaultInputLanguage         = "English"
	defaultOutputLanguage        = "Hindi"
	defaultGeminiLocation        = "us-central1"
	defaultAnalysisModel         = "gemini-2.5-pro"
	defaultTTSModel              = "gemini-2.5-pro-preview-tts"
	defaultPollIntervalSeconds   = 10
	defaultMaxWaitMinutes        = 30
	defaultRequestTimeoutSeconds = 600
	defaultTTSProvider           = "gemini"
	defaultTTSSampleRate         = 24000
	defaultTTSChannels           = 1
	defaultTTSRequestIntervalMS  = 2000
	defaultOpenAIModel           = "tts-1"
	defaultFallbackVoice         = "Leda"
	defaultSeparationCommand     = "python3"
	defaultSeparationModel       = "htdemucs"
	defaultSeparationTimeout     = 30
	defaultTimelineSampleRate    = 44100
	defaultTimelineChannels      = 2
	defaultRubberbandBinary      = "rubberband"
	defaultStretchTimeoutSeconds = 120
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultVideoCodec            = "libx264"
	defaultAudioCodec            = "aac"
	defaultMediaTimeoutMinutes   = 60
	defaultStoragePrefix         = "dubbed_videos"
	defaultStorageRegion         = "us-east-1"
	defaultProgressQueueSize     = 256
	defaultProgressDrainInterval = 500
	defaultProgressRedisChannel  = "dubber:progress"
	defaultNtfyRequestTimeout    = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
		},
		Languages: Languages{
			Input:  defaultInputLanguage,
			Output: defaultOutputLanguage,
		},
		Gemini: Gemini{
			Location:              defaultGeminiLocation,
			AnalysisModel:         defaultAnalysisModel,
			TTSModel:              defaultTTSModel,
			PollIntervalSeconds:   defaultPollIntervalSeconds,
			MaxWaitMinutes:        defaultMaxWaitMinutes,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		TTS: TTS{
			Provider:          defaultTTSProvider,
			SampleRate:        defaultTTSSampleRate,
			Channels:          defaultTTSChannels,
			RequestIntervalMS: defaultTTSRequestIntervalMS,
			OpenAIModel:       defaultOpenAIModel,
		},
		Voices: Voices{
			Male:     []string{"Puck", "Orus", "Enceladus", "Charon", "Fenrir", "Iapetus", "Umbriel"},
			Female:   []string{"Kore", "Zephyr", "Leda", "Sulafat", "Aoede", "Callirrhoe", "Autonoe"},
			Child:    []string{"Leda", "Kore"},
			Fallback: defaultFallbackVoice,
		},
		Separation: Separation{
			Enabled:        true,
			Command:        defaultSeparationCommand,
			Model:          defaultSeparationModel,
			TimeoutMinutes: defaultSeparationTimeout,
		},
		Timeline: Timeline{
			SampleRate:            defaultTimelineSampleRate,
			Channels:              defaultTimelineChannels,
			RubberbandBinary:      defaultRubberbandBinary,
			StretchTimeoutSeconds: defaultStretchTimeoutSeconds,
		},
		Media: Media{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			VideoCodec:     defaultVideoCodec,
			AudioCodec:     defaultAudioCodec,
			TimeoutMinutes: defaultMediaTimeoutMinutes,
		},
		Storage: Storage{
			Prefix: defaultStoragePrefix,
			Region: defaultStorageRegion,
			UseSSL: true,
		},
		Progress: Progress{
			QueueSize:       defaultProgressQueueSize,
			DrainIntervalMS: defaultProgressDrainInterval,
			RedisChannel:    defaultProgressRedisChannel,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
