package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"dubber/internal/script"
	"dubber/internal/services"
	"dubber/internal/tts"
)

// Config captures the settings needed to reach the model provider.
type Config struct {
	APIKey    string
	UseVertex bool
	Project   string
	Location  string
	TTSModel  string
	// BaseURL overrides the service endpoint (tests point this at httptest).
	BaseURL        string
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

// Client implements script.ModelService and tts.SpeechModel.
type Client struct {
	api      *genai.Client
	ttsModel string
	timeout  time.Duration
}

var (
	_ script.ModelService = (*Client)(nil)
	_ tts.SpeechModel     = (*Client)(nil)
)

// New creates a client for the configured backend.
func New(ctx context.Context, cfg Config) (*Client, error) {
	cc := &genai.ClientConfig{HTTPClient: cfg.HTTPClient}
	if cfg.UseVertex {
		if strings.TrimSpace(cfg.Project) == "" {
			return nil, services.Wrap(services.ErrConfiguration, "", "gemini client", "vertex backend requires a project", nil)
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	} else {
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, services.Wrap(services.ErrAuthentication, "", "gemini client", "api key not configured", nil)
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	api, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, classify("gemini client", err)
	}
	return &Client{api: api, ttsModel: cfg.TTSModel, timeout: cfg.RequestTimeout}, nil
}

// UploadFile implements script.ModelService.
func (c *Client) UploadFile(ctx context.Context, path, mimeType string) (script.RemoteFile, error) {
	file, err := c.api.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: mimeType})
	if err != nil {
		return script.RemoteFile{}, classify("upload file", err)
	}
	return remoteFile(file), nil
}

// GetFile implements script.ModelService.
func (c *Client) GetFile(ctx context.Context, name string) (script.RemoteFile, error) {
	file, err := c.api.Files.Get(ctx, name, nil)
	if err != nil {
		return script.RemoteFile{}, classify("get file", err)
	}
	return remoteFile(file), nil
}

// DeleteFile implements script.ModelService.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	if _, err := c.api.Files.Delete(ctx, name, nil); err != nil {
		return classify("delete file", err)
	}
	return nil
}

// GenerateText implements script.ModelService.
func (c *Client) GenerateText(ctx context.Context, model string, file script.RemoteFile, prompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	parts := []*genai.Part{
		genai.NewPartFromURI(file.URI, file.MIMEType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.api.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", classify("generate content", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", services.Wrap(services.ErrValidation, "analyzing", "generate content", "model returned no text", nil)
	}
	return text, nil
}

// Speak implements tts.SpeechModel using a prebuilt voice and audio-only
// output.
func (c *Client) Speak(ctx context.Context, req tts.SpeechRequest) ([]byte, error) {
	if strings.TrimSpace(c.ttsModel) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "synthesizing", "speak", "tts model not configured", nil)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: req.Voice},
			},
		},
	}
	resp, err := c.api.Models.GenerateContent(ctx, c.ttsModel, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, classify("speak", err)
	}
	return inlineAudio(resp), nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// inlineAudio returns the first inline payload, or nil when the response
// carries none.
func inlineAudio(resp *genai.GenerateContentResponse) []byte {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

func remoteFile(f *genai.File) script.RemoteFile {
	if f == nil {
		return script.RemoteFile{}
	}
	state := script.FileStateProcessing
	switch f.State {
	case genai.FileStateActive:
		state = script.FileStateActive
	case genai.FileStateFailed:
		state = script.FileStateFailed
	}
	return script.RemoteFile{Name: f.Name, URI: f.URI, MIMEType: f.MIMEType, State: state}
}

// classify tags SDK errors with the service markers.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "", operation, "", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code = apiErrPtr.Code
	}
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return services.Wrap(services.ErrAuthentication, "", operation, fmt.Sprintf("status %d", code), err)
	case code == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "", operation, "", err)
	case code == http.StatusBadRequest:
		if strings.Contains(strings.ToLower(err.Error()), "api key") {
			return services.Wrap(services.ErrAuthentication, "", operation, "invalid api key", err)
		}
		return services.Wrap(services.ErrValidation, "", operation, "", err)
	default:
		return services.Wrap(services.ErrTransient, "", operation, "", err)
	}
}
