package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir     string `toml:"work_dir"`
	OutputDir   string `toml:"output_dir"`
	LogDir      string `toml:"log_dir"`
	KeepWorkDir bool   `toml:"keep_work_dir"`
	SaveAudio   bool   `toml:"save_audio"`
}

// Languages holds the default source and target languages for a run.
type Languages struct {
	Input  string `toml:"input"`
	Output string `toml:"output"`
}

// Gemini contains settings for the multimodal analysis and speech models.
type Gemini struct {
	APIKey                string `toml:"api_key"`
	UseVertex             bool   `toml:"use_vertex"`
	Project               string `toml:"project"`
	Location              string `toml:"location"`
	AnalysisModel         string `toml:"analysis_model"`
	TTSModel              string `toml:"tts_model"`
	PollIntervalSeconds   int    `toml:"poll_interval_seconds"`
	MaxWaitMinutes        int    `toml:"max_wait_minutes"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Analysis controls the dialogue script request.
type Analysis struct {
	// PromptFile replaces the built-in analysis prompt when set. The file may use
	// the {INPUT_LANGUAGE} and {OUTPUT_LANGUAGE} placeholders.
	PromptFile string `toml:"prompt_file"`
}

// TTS contains speech synthesis settings.
type TTS struct {
	Provider          string `toml:"provider"`
	SampleRate        int    `toml:"sample_rate"`
	Channels          int    `toml:"channels"`
	RequestIntervalMS int    `toml:"request_interval_ms"`
	OpenAIAPIKey      string `toml:"openai_api_key"`
	OpenAIBaseURL     string `toml:"openai_base_url"`
	OpenAIModel       string `toml:"openai_model"`
}

// Voices lists the prebuilt voice pools per character type.
type Voices struct {
	Male     []string `toml:"male"`
	Female   []string `toml:"female"`
	Child    []string `toml:"child"`
	Elderly  []string `toml:"elderly"`
	Fallback string   `toml:"fallback"`
}

// Separation configures the external stem separator.
type Separation struct {
	Enabled        bool   `toml:"enabled"`
	Command        string `toml:"command"`
	Model          string `toml:"model"`
	TimeoutMinutes int    `toml:"timeout_minutes"`
}

// Timeline controls the composited audio format and clip stretching.
type Timeline struct {
	SampleRate            int    `toml:"sample_rate"`
	Channels              int    `toml:"channels"`
	RubberbandBinary      string `toml:"rubberband_binary"`
	StretchTimeoutSeconds int    `toml:"stretch_timeout_seconds"`
}

// Media names the ffmpeg tooling and output codecs.
type Media struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	VideoCodec     string `toml:"video_codec"`
	AudioCodec     string `toml:"audio_codec"`
	TimeoutMinutes int    `toml:"timeout_minutes"`
}

// Storage contains S3-compatible object storage settings for publishing.
type Storage struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Progress controls the status narration queue and its optional Redis fan-out.
type Progress struct {
	QueueSize       int    `toml:"queue_size"`
	DrainIntervalMS int    `toml:"drain_interval_ms"`
	RedisAddr       string `toml:"redis_addr"`
	RedisPassword   string `toml:"redis_password"`
	RedisDB         int    `toml:"redis_db"`
	RedisChannel    string `toml:"redis_channel"`
}

// Notifications configures ntfy run notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for dubber.
//
// Configuration sections by subsystem:
//   - Paths: work, output, and log directories
//   - Languages: default input/output languages
//   - Gemini: analysis and speech model access
//   - Analysis: prompt override
//   - TTS: speech provider and clip format
//   - Voices: per character type voice pools
//   - Separation: background/vocal stem splitting
//   - Timeline: mix format and time-stretch tooling
//   - Media: ffmpeg binaries and output codecs
//   - Storage: optional publishing of finished videos
//   - Progress: status queue sizing and Redis fan-out
//   - Notifications: ntfy topic for run outcomes
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Languages     Languages     `toml:"languages"`
	Gemini        Gemini        `toml:"gemini"`
	Analysis      Analysis      `toml:"analysis"`
	TTS           TTS           `toml:"tts"`
	Voices        Voices        `toml:"voices"`
	Separation    Separation    `toml:"separation"`
	Timeline      Timeline      `toml:"timeline"`
	Media         Media         `toml:"media"`
	Storage       Storage       `toml:"storage"`
	Progress      Progress      `toml:"progress"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dubber.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work and output directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AnalysisPrompt returns the custom analysis prompt template, or an empty string
// when the built-in template should be used.
func (c *Config) AnalysisPrompt() (string, error) {
	if strings.TrimSpace(c.Analysis.PromptFile) == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Analysis.PromptFile)
	if err != nil {
		return "", fmt.Errorf("read analysis.prompt_file: %w", err)
	}
	return string(data), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML. Secrets are masked.
func (c *Config) Encode() (string, error) {
	masked := *c
	masked.Gemini.APIKey = maskSecret(masked.Gemini.APIKey)
	masked.TTS.OpenAIAPIKey = maskSecret(masked.TTS.OpenAIAPIKey)
	masked.Storage.SecretKey = maskSecret(masked.Storage.SecretKey)
	masked.Progress.RedisPassword = maskSecret(masked.Progress.RedisPassword)
	data, err := toml.Marshal(masked)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}
