package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dubber/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "dubber", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Fatalf("expected Gemini key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.AnalysisModel != "gemini-2.5-pro" {
		t.Fatalf("unexpected analysis model: %q", cfg.Gemini.AnalysisModel)
	}
	if cfg.Gemini.PollIntervalSeconds != 10 {
		t.Fatalf("unexpected poll interval: %d", cfg.Gemini.PollIntervalSeconds)
	}
	if cfg.TTS.SampleRate != 24000 || cfg.TTS.Channels != 1 {
		t.Fatalf("unexpected tts format: %d Hz %d ch", cfg.TTS.SampleRate, cfg.TTS.Channels)
	}
	if cfg.Voices.Fallback != "Leda" {
		t.Fatalf("unexpected fallback voice: %q", cfg.Voices.Fallback)
	}
	if len(cfg.Voices.Male) != 7 || cfg.Voices.Male[0] != "Puck" {
		t.Fatalf("unexpected male pool: %v", cfg.Voices.Male)
	}
	if cfg.Storage.Enabled {
		t.Fatal("expected storage disabled by default")
	}
	if err := cfg.ValidateRemote(); err != nil {
		t.Fatalf("ValidateRemote returned error: %v", err)
	}
}

func TestGoogleAPIKeyFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Gemini.APIKey != "google-key" {
		t.Fatalf("expected GOOGLE_API_KEY fallback, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"work_dir":   "~/scratch",
			"output_dir": filepath.Join(tempHome, "out"),
		},
		"languages": map[string]any{"input": " Japanese ", "output": "English"},
		"gemini":    map[string]any{"api_key": "file-key", "max_wait_minutes": 5},
		"voices":    map[string]any{"male": []string{" Orus ", ""}, "fallback": ""},
		"logging":   map[string]any{"format": "JSON", "level": "DEBUG"},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempHome, "scratch") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if cfg.Languages.Input != "Japanese" {
		t.Fatalf("expected trimmed input language, got %q", cfg.Languages.Input)
	}
	if cfg.Gemini.MaxWaitMinutes != 5 {
		t.Fatalf("unexpected max wait: %d", cfg.Gemini.MaxWaitMinutes)
	}
	if len(cfg.Voices.Male) != 1 || cfg.Voices.Male[0] != "Orus" {
		t.Fatalf("expected cleaned male pool, got %v", cfg.Voices.Male)
	}
	if cfg.Voices.Fallback != "Leda" {
		t.Fatalf("expected default fallback voice, got %q", cfg.Voices.Fallback)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"provider", func(c *config.Config) { c.TTS.Provider = "polly" }, "tts.provider"},
		{"voices", func(c *config.Config) { c.Voices.Male, c.Voices.Female, c.Voices.Child = nil, nil, nil }, "voices"},
		{"storage endpoint", func(c *config.Config) { c.Storage.Enabled = true }, "storage.endpoint"},
		{"storage scheme", func(c *config.Config) {
			c.Storage.Enabled = true
			c.Storage.Endpoint = "https://minio.local"
		}, "without a scheme"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"timeline rate", func(c *config.Config) { c.Timeline.SampleRate = 4000 }, "timeline.sample_rate"},
		{"openai model", func(c *config.Config) {
			c.TTS.Provider = "openai"
			c.TTS.OpenAIModel = "gpt-4o-mini-tts"
		}, "tts.openai_model"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "notifications.ntfy_topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestValidateRemoteRequiresCredentials(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateRemote(); err == nil || !strings.Contains(err.Error(), "gemini.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
	cfg.Gemini.UseVertex = true
	if err := cfg.ValidateRemote(); err == nil || !strings.Contains(err.Error(), "gemini.project") {
		t.Fatalf("expected project error, got %v", err)
	}
	cfg.Gemini.Project = "proj"
	cfg.TTS.Provider = "openai"
	if err := cfg.ValidateRemote(); err == nil || !strings.Contains(err.Error(), "openai_api_key") {
		t.Fatalf("expected openai key error, got %v", err)
	}
}

func TestSampleConfigParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	def := config.Default()
	if cfg.Timeline.SampleRate != def.Timeline.SampleRate || cfg.Separation.Model != def.Separation.Model {
		t.Fatalf("sample config diverged from defaults: %+v %+v", cfg.Timeline, cfg.Separation)
	}
}

func TestEncodeMasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Gemini.APIKey = "abcdefghij"
	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if strings.Contains(out, "abcdefghij") {
		t.Fatalf("expected api key to be masked: %s", out)
	}
	if !strings.Contains(out, "ab******ij") {
		t.Fatalf("expected masked key in output: %s", out)
	}
}

func TestAnalysisPromptReadsOverride(t *testing.T) {
	cfg := config.Default()
	prompt, err := cfg.AnalysisPrompt()
	if err != nil || prompt != "" {
		t.Fatalf("expected built-in prompt marker, got %q %v", prompt, err)
	}

	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("Dub {INPUT_LANGUAGE} into {OUTPUT_LANGUAGE}"), 0o644); err != nil {
		t.Fatalf("write prompt: %v", err)
	}
	cfg.Analysis.PromptFile = path
	prompt, err = cfg.AnalysisPrompt()
	if err != nil {
		t.Fatalf("AnalysisPrompt returned error: %v", err)
	}
	if prompt != "Dub {INPUT_LANGUAGE} into {OUTPUT_LANGUAGE}" {
		t.Fatalf("unexpected prompt: %q", prompt)
	}

	cfg.Analysis.PromptFile = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := cfg.AnalysisPrompt(); err == nil || !strings.Contains(err.Error(), "analysis.prompt_file") {
		t.Fatalf("expected read error, got %v", err)
	}
}
