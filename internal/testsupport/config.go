package testsupport

import (
	"path/filepath"
	"testing"

	"dubber/internal/config"
)

// ConfigOption adjusts a config built by NewConfig.
type ConfigOption func(*config.Config)

// NewConfig returns the default config rooted in a per-test temp directory.
// The Gemini key is a placeholder, TTS pacing is off and polling runs every
// second.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Gemini.APIKey = "test"
	cfg.Gemini.PollIntervalSeconds = 1
	cfg.TTS.RequestIntervalMS = 0
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithStorage enables publishing to bucket on a plain-HTTP endpoint.
func WithStorage(endpoint, bucket string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage.Enabled = true
		cfg.Storage.Endpoint = endpoint
		cfg.Storage.Bucket = bucket
		cfg.Storage.AccessKey = "access"
		cfg.Storage.SecretKey = "secret"
		cfg.Storage.UseSSL = false
	}
}
