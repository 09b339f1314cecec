package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/genai"

	"dubber/internal/script"
	"dubber/internal/services"
	"dubber/internal/tts"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(context.Background(), Config{APIKey: "test-key", TTSModel: "tts-model", BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(context.Background(), Config{}); !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if _, err := New(context.Background(), Config{UseVertex: true}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestGenerateTextSendsFileAndPrompt(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{map[string]any{"text": `[{"start_time":0}]`}}},
			}},
		})
	})
	c := newTestClient(t, srv)
	text, err := c.GenerateText(context.Background(), "analysis-model",
		script.RemoteFile{Name: "files/abc", URI: "https://example.test/files/abc", MIMEType: "video/mp4"}, "describe it")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != `[{"start_time":0}]` {
		t.Fatalf("unexpected text %q", text)
	}
	if len(*seen) != 1 {
		t.Fatalf("expected one request, got %d", len(*seen))
	}
	req := (*seen)[0]
	if !strings.HasSuffix(req.Path, "models/analysis-model:generateContent") {
		t.Fatalf("unexpected path %q", req.Path)
	}
	if !strings.Contains(req.Body, "https://example.test/files/abc") || !strings.Contains(req.Body, "describe it") {
		t.Fatalf("request body missing file or prompt: %s", req.Body)
	}
}

func TestSpeakRequestsAudioWithVoice(t *testing.T) {
	pcm := []byte{1, 0, 2, 0}
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"role": "model", "parts": []any{map[string]any{
					"inlineData": map[string]any{"mimeType": "audio/L16;codec=pcm;rate=24000", "data": base64.StdEncoding.EncodeToString(pcm)},
				}}},
			}},
		})
	})
	c := newTestClient(t, srv)
	got, err := c.Speak(context.Background(), tts.SpeechRequest{Prompt: "say hi", Voice: "Kore", Text: "hi"})
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if string(got) != string(pcm) {
		t.Fatalf("unexpected audio %v", got)
	}
	body := (*seen)[0].Body
	if !strings.HasSuffix((*seen)[0].Path, "models/tts-model:generateContent") {
		t.Fatalf("unexpected path %q", (*seen)[0].Path)
	}
	if !strings.Contains(body, `"AUDIO"`) || !strings.Contains(body, `"Kore"`) {
		t.Fatalf("speech config missing from body: %s", body)
	}
}

func TestSpeakEmptyResponseReturnsNoAudio(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"candidates": []any{}})
	})
	got, err := newTestClient(t, srv).Speak(context.Background(), tts.SpeechRequest{Prompt: "x", Voice: "Puck"})
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no audio, got %d bytes", len(got))
	}
}

func TestFileLifecycle(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, map[string]any{"name": "files/abc", "uri": "https://example.test/files/abc", "mimeType": "video/mp4", "state": "ACTIVE"})
		case http.MethodDelete:
			writeJSON(t, w, map[string]any{})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	c := newTestClient(t, srv)
	file, err := c.GetFile(context.Background(), "files/abc")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if file.State != script.FileStateActive || file.URI != "https://example.test/files/abc" {
		t.Fatalf("unexpected file %+v", file)
	}
	if err := c.DeleteFile(context.Background(), "files/abc"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if len(*seen) != 2 || (*seen)[1].Method != http.MethodDelete || !strings.HasSuffix((*seen)[1].Path, "files/abc") {
		t.Fatalf("unexpected requests %+v", *seen)
	}
}

func TestAuthErrorsAreClassified(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		writeJSON(t, w, map[string]any{"error": map[string]any{"code": 403, "message": "permission denied", "status": "PERMISSION_DENIED"}})
	})
	_, err := newTestClient(t, srv).GenerateText(context.Background(), "m", script.RemoteFile{URI: "u", MIMEType: "video/mp4"}, "p")
	if !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if services.ExitCode(err) != 3 {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
}

func TestRemoteFileStates(t *testing.T) {
	cases := map[genai.FileState]script.FileState{
		genai.FileStateActive:      script.FileStateActive,
		genai.FileStateFailed:      script.FileStateFailed,
		genai.FileStateProcessing:  script.FileStateProcessing,
		genai.FileStateUnspecified: script.FileStateProcessing,
	}
	for in, want := range cases {
		if got := remoteFile(&genai.File{Name: "files/x", State: in}).State; got != want {
			t.Errorf("state %q mapped to %q, want %q", in, got, want)
		}
	}
	if remoteFile(nil).Name != "" {
		t.Fatal("nil file should map to empty handle")
	}
}
