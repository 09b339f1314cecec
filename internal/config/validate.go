package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateVoices(); err != nil {
		return err
	}
	if err := c.validateTimeline(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateProgress(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateRemote checks the credentials needed to reach the model services.
// Commands that never call a model skip this check.
func (c *Config) ValidateRemote() error {
	if c.Gemini.UseVertex {
		if c.Gemini.Project == "" {
			return errors.New("gemini.project must be set when gemini.use_vertex is true (or set GOOGLE_CLOUD_PROJECT)")
		}
	} else if c.Gemini.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'dubber config init')", defaultPath)
	}
	if c.TTS.Provider == "openai" && c.TTS.OpenAIAPIKey == "" {
		return errors.New("tts.openai_api_key is required when tts.provider is openai (or set OPENAI_API_KEY)")
	}
	return nil
}

func (c *Config) validateTTS() error {
	switch c.TTS.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("tts.provider: unsupported value %q (want gemini or openai)", c.TTS.Provider)
	}
	if c.TTS.Channels > 2 {
		return errors.New("tts.channels must be 1 or 2")
	}
	if c.TTS.Provider == "openai" {
		switch c.TTS.OpenAIModel {
		case "tts-1", "tts-1-hd":
		default:
			return fmt.Errorf("tts.openai_model: unsupported value %q (want tts-1 or tts-1-hd)", c.TTS.OpenAIModel)
		}
	}
	return nil
}

func (c *Config) validateVoices() error {
	if len(c.Voices.Male) == 0 && len(c.Voices.Female) == 0 && len(c.Voices.Child) == 0 {
		return errors.New("voices: at least one of male, female, or child pools must be set")
	}
	return nil
}

func (c *Config) validateTimeline() error {
	if c.Timeline.SampleRate < 8000 {
		return errors.New("timeline.sample_rate must be at least 8000")
	}
	if c.Timeline.Channels > 2 {
		return errors.New("timeline.channels must be 1 or 2")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if c.Storage.Endpoint == "" {
		return errors.New("storage.endpoint must be set when storage.enabled is true")
	}
	if strings.Contains(c.Storage.Endpoint, "://") {
		return errors.New("storage.endpoint must be host[:port] without a scheme; use storage.use_ssl instead")
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set when storage.enabled is true")
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return errors.New("storage.access_key and storage.secret_key must be set when storage.enabled is true")
	}
	return nil
}

func (c *Config) validateProgress() error {
	if c.Progress.RedisDB < 0 {
		return errors.New("progress.redis_db must be non-negative")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return errors.New("notifications.ntfy_topic must be a full URL such as https://ntfy.sh/my-topic")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
