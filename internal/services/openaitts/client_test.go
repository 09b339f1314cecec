package openaitts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"dubber/internal/services"
	"dubber/internal/tts"
)

func TestSpeakPostsSpeechRequest(t *testing.T) {
	var got map[string]any
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/pcm")
		_, _ = w.Write([]byte{1, 0, 2, 0})
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pcm, err := c.Speak(context.Background(), tts.SpeechRequest{Prompt: "direction", Voice: "nova", Text: "hello"})
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(pcm) != 4 {
		t.Fatalf("unexpected audio %v", pcm)
	}
	if path != "/v1/audio/speech" || auth != "Bearer sk-test" {
		t.Fatalf("unexpected request path=%q auth=%q", path, auth)
	}
	if got["input"] != "hello" || got["voice"] != "nova" || got["model"] != DefaultModel || got["response_format"] != "pcm" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestSpeakUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "sk-bad", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Speak(context.Background(), tts.SpeechRequest{Voice: "alloy", Text: "x"}); !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, services.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestMapVoice(t *testing.T) {
	if MapVoice("Shimmer") != openai.VoiceShimmer {
		t.Fatal("known voice should pass through")
	}
	first := MapVoice("Puck")
	for i := 0; i < 3; i++ {
		if MapVoice("Puck") != first {
			t.Fatal("mapping is not stable")
		}
	}
	valid := false
	for _, v := range knownVoices {
		if v == first {
			valid = true
		}
	}
	if !valid {
		t.Fatalf("mapped to unknown voice %q", first)
	}
}
