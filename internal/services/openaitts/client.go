package openaitts

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"dubber/internal/services"
	"dubber/internal/tts"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "tts-1"

// pcmFormat asks for raw 24 kHz mono 16-bit little-endian samples.
const pcmFormat openai.SpeechResponseFormat = "pcm"

var knownVoices = []openai.SpeechVoice{
	openai.VoiceAlloy,
	openai.VoiceEcho,
	openai.VoiceFable,
	openai.VoiceOnyx,
	openai.VoiceNova,
	openai.VoiceShimmer,
}

// Config configures the client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Client implements tts.SpeechModel.
type Client struct {
	api   *openai.Client
	model openai.SpeechModel
}

var _ tts.SpeechModel = (*Client)(nil)

// New builds a client. The API key is required.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrAuthentication, "", "openai tts", "api key not configured", nil)
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		conf.HTTPClient = cfg.HTTPClient
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: openai.NewClientWithConfig(conf), model: openai.SpeechModel(model)}, nil
}

// Speak implements tts.SpeechModel.
func (c *Client) Speak(ctx context.Context, req tts.SpeechRequest) ([]byte, error) {
	body, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          c.model,
		Input:          req.Text,
		Voice:          MapVoice(req.Voice),
		ResponseFormat: pcmFormat,
	})
	if err != nil {
		return nil, classify(err)
	}
	defer body.Close()
	pcm, err := io.ReadAll(body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "synthesizing", "read speech", "", err)
	}
	return pcm, nil
}

// MapVoice returns voice when it names an OpenAI voice, and otherwise a
// stable OpenAI voice derived from the name so each cast voice keeps its
// own sound.
func MapVoice(voice string) openai.SpeechVoice {
	name := strings.ToLower(strings.TrimSpace(voice))
	for _, v := range knownVoices {
		if string(v) == name {
			return v
		}
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return knownVoices[h.Sum32()%uint32(len(knownVoices))]
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrAuthentication, "synthesizing", "openai speech", fmt.Sprintf("status %d", apiErr.HTTPStatusCode), err)
		case http.StatusBadRequest:
			return services.Wrap(services.ErrValidation, "synthesizing", "openai speech", "", err)
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && (reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden) {
		return services.Wrap(services.ErrAuthentication, "synthesizing", "openai speech", fmt.Sprintf("status %d", reqErr.HTTPStatusCode), err)
	}
	return services.Wrap(services.ErrTransient, "synthesizing", "openai speech", "", err)
}
