package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLanguages()
	c.normalizeGemini()
	if err := c.normalizeAnalysis(); err != nil {
		return err
	}
	c.normalizeTTS()
	c.normalizeVoices()
	c.normalizeSeparation()
	c.normalizeTimeline()
	c.normalizeMedia()
	c.normalizeStorage()
	c.normalizeProgress()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLanguages() {
	c.Languages.Input = strings.TrimSpace(c.Languages.Input)
	if c.Languages.Input == "" {
		c.Languages.Input = defaultInputLanguage
	}
	c.Languages.Output = strings.TrimSpace(c.Languages.Output)
	if c.Languages.Output == "" {
		c.Languages.Output = defaultOutputLanguage
	}
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("GOOGLE_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.Project = strings.TrimSpace(c.Gemini.Project)
	if c.Gemini.Project == "" {
		if value, ok := os.LookupEnv("GOOGLE_CLOUD_PROJECT"); ok {
			c.Gemini.Project = strings.TrimSpace(value)
		}
	}
	c.Gemini.Location = strings.TrimSpace(c.Gemini.Location)
	if c.Gemini.Location == "" {
		c.Gemini.Location = defaultGeminiLocation
	}
	c.Gemini.AnalysisModel = strings.TrimSpace(c.Gemini.AnalysisModel)
	if c.Gemini.AnalysisModel == "" {
		c.Gemini.AnalysisModel = defaultAnalysisModel
	}
	c.Gemini.TTSModel = strings.TrimSpace(c.Gemini.TTSModel)
	if c.Gemini.TTSModel == "" {
		c.Gemini.TTSModel = defaultTTSModel
	}
	if c.Gemini.PollIntervalSeconds <= 0 {
		c.Gemini.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Gemini.MaxWaitMinutes <= 0 {
		c.Gemini.MaxWaitMinutes = defaultMaxWaitMinutes
	}
	if c.Gemini.RequestTimeoutSeconds <= 0 {
		c.Gemini.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeAnalysis() error {
	var err error
	if c.Analysis.PromptFile, err = expandPath(strings.TrimSpace(c.Analysis.PromptFile)); err != nil {
		return fmt.Errorf("analysis.prompt_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeTTS() {
	c.TTS.Provider = strings.ToLower(strings.TrimSpace(c.TTS.Provider))
	if c.TTS.Provider == "" {
		c.TTS.Provider = defaultTTSProvider
	}
	if c.TTS.SampleRate <= 0 {
		c.TTS.SampleRate = defaultTTSSampleRate
	}
	if c.TTS.Channels <= 0 {
		c.TTS.Channels = defaultTTSChannels
	}
	if c.TTS.RequestIntervalMS < 0 {
		c.TTS.RequestIntervalMS = 0
	}
	c.TTS.OpenAIAPIKey = strings.TrimSpace(c.TTS.OpenAIAPIKey)
	if c.TTS.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.TTS.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
	c.TTS.OpenAIBaseURL = strings.TrimSpace(c.TTS.OpenAIBaseURL)
	c.TTS.OpenAIModel = strings.TrimSpace(c.TTS.OpenAIModel)
	if c.TTS.OpenAIModel == "" {
		c.TTS.OpenAIModel = defaultOpenAIModel
	}
}

func (c *Config) normalizeVoices() {
	c.Voices.Male = cleanList(c.Voices.Male)
	c.Voices.Female = cleanList(c.Voices.Female)
	c.Voices.Child = cleanList(c.Voices.Child)
	c.Voices.Elderly = cleanList(c.Voices.Elderly)
	c.Voices.Fallback = strings.TrimSpace(c.Voices.Fallback)
	if c.Voices.Fallback == "" {
		c.Voices.Fallback = defaultFallbackVoice
	}
}

func (c *Config) normalizeSeparation() {
	c.Separation.Command = strings.TrimSpace(c.Separation.Command)
	if c.Separation.Command == "" {
		c.Separation.Command = defaultSeparationCommand
	}
	c.Separation.Model = strings.TrimSpace(c.Separation.Model)
	if c.Separation.Model == "" {
		c.Separation.Model = defaultSeparationModel
	}
	if c.Separation.TimeoutMinutes <= 0 {
		c.Separation.TimeoutMinutes = defaultSeparationTimeout
	}
}

func (c *Config) normalizeTimeline() {
	if c.Timeline.SampleRate <= 0 {
		c.Timeline.SampleRate = defaultTimelineSampleRate
	}
	if c.Timeline.Channels <= 0 {
		c.Timeline.Channels = defaultTimelineChannels
	}
	c.Timeline.RubberbandBinary = strings.TrimSpace(c.Timeline.RubberbandBinary)
	if c.Timeline.RubberbandBinary == "" {
		c.Timeline.RubberbandBinary = defaultRubberbandBinary
	}
	if c.Timeline.StretchTimeoutSeconds <= 0 {
		c.Timeline.StretchTimeoutSeconds = defaultStretchTimeoutSeconds
	}
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
	c.Media.VideoCodec = strings.TrimSpace(c.Media.VideoCodec)
	if c.Media.VideoCodec == "" {
		c.Media.VideoCodec = defaultVideoCodec
	}
	c.Media.AudioCodec = strings.TrimSpace(c.Media.AudioCodec)
	if c.Media.AudioCodec == "" {
		c.Media.AudioCodec = defaultAudioCodec
	}
	if c.Media.TimeoutMinutes <= 0 {
		c.Media.TimeoutMinutes = defaultMediaTimeoutMinutes
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	if c.Storage.Endpoint == "" {
		if value, ok := os.LookupEnv("MINIO_ENDPOINT"); ok {
			c.Storage.Endpoint = strings.TrimSpace(value)
		}
	}
	c.Storage.AccessKey = strings.TrimSpace(c.Storage.AccessKey)
	if c.Storage.AccessKey == "" {
		if value, ok := os.LookupEnv("MINIO_ACCESS_KEY"); ok {
			c.Storage.AccessKey = strings.TrimSpace(value)
		}
	}
	c.Storage.SecretKey = strings.TrimSpace(c.Storage.SecretKey)
	if c.Storage.SecretKey == "" {
		if value, ok := os.LookupEnv("MINIO_SECRET_KEY"); ok {
			c.Storage.SecretKey = strings.TrimSpace(value)
		}
	}
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	if c.Storage.Region == "" {
		c.Storage.Region = defaultStorageRegion
	}
}

func (c *Config) normalizeProgress() {
	if c.Progress.QueueSize <= 0 {
		c.Progress.QueueSize = defaultProgressQueueSize
	}
	if c.Progress.DrainIntervalMS <= 0 {
		c.Progress.DrainIntervalMS = defaultProgressDrainInterval
	}
	c.Progress.RedisAddr = strings.TrimSpace(c.Progress.RedisAddr)
	c.Progress.RedisChannel = strings.TrimSpace(c.Progress.RedisChannel)
	if c.Progress.RedisChannel == "" {
		c.Progress.RedisChannel = defaultProgressRedisChannel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
