package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dubber/internal/progress"
	"dubber/internal/script"
	"dubber/internal/testsupport"
)

type fakeSpeech struct {
	requests []SpeechRequest
	pcm      []byte
	err      error
}

func (f *fakeSpeech) Speak(_ context.Context, req SpeechRequest) ([]byte, error) {
	f.requests = append(f.requests, req)
	return f.pcm, f.err
}

func pcmSamples(n int, value int16) []byte {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, byte(uint16(value)), byte(uint16(value)>>8))
	}
	return out
}

func testJob(dir string, translations map[string]string) Job {
	return Job{
		Index: 0,
		Total: 1,
		Segment: script.Segment{
			StartTime:     0,
			EndTime:       1,
			SpeakerLabel:  "SPEAKER_1",
			CharacterType: script.CharacterMale,
			Emotion:       script.EmotionNeutral,
			DeliveryStyle: script.DeliveryNormal,
			Pace:          script.PaceNormal,
			Translations:  translations,
		},
		Voice:      "Puck",
		Language:   "Hindi",
		OutputPath: filepath.Join(dir, "segment_0.wav"),
	}
}

func TestSynthesizeWritesWAV(t *testing.T) {
	model := &fakeSpeech{pcm: pcmSamples(2400, 1000)}
	rec := &progress.Recorder{}
	s := NewSynthesizer(model, rec, nil, Options{RequestInterval: -1})
	job := testJob(t.TempDir(), map[string]string{"Hindi": "namaste"})

	path, ok := s.Synthesize(context.Background(), job)
	if !ok || path != job.OutputPath {
		t.Fatalf("Synthesize = %q %v", path, ok)
	}
	buf := testsupport.ReadWAV(t, path)
	if buf.Format.SampleRate != DefaultSampleRate || buf.Format.NumChannels != DefaultChannels {
		t.Fatalf("unexpected format %+v", buf.Format)
	}
	if len(buf.Data) != 2400 || buf.Data[0] != 1000 {
		t.Fatalf("unexpected samples len=%d first=%d", len(buf.Data), buf.Data[0])
	}
	if len(model.requests) != 1 {
		t.Fatalf("expected one request, got %d", len(model.requests))
	}
	req := model.requests[0]
	if req.Voice != "Puck" || req.Text != "namaste" || !strings.Contains(req.Prompt, `TEXT: "namaste"`) {
		t.Fatalf("unexpected request %+v", req)
	}
	if !rec.Contains("Synthesizing 1/1") {
		t.Fatalf("progress not reported: %v", rec.Texts())
	}
}

func TestSynthesizeMissingTranslationUsesPlaceholder(t *testing.T) {
	model := &fakeSpeech{pcm: pcmSamples(10, 1)}
	s := NewSynthesizer(model, nil, nil, Options{RequestInterval: -1})
	if _, ok := s.Synthesize(context.Background(), testJob(t.TempDir(), map[string]string{"French": "bonjour"})); !ok {
		t.Fatal("expected synthesis to succeed")
	}
	if model.requests[0].Text != PlaceholderText {
		t.Fatalf("expected placeholder text, got %q", model.requests[0].Text)
	}
}

func TestSynthesizeFailuresAreSoft(t *testing.T) {
	tests := map[string]*fakeSpeech{
		"error":       {err: errors.New("quota exceeded")},
		"empty audio": {pcm: nil},
		"one byte":    {pcm: []byte{1}},
	}
	for name, model := range tests {
		t.Run(name, func(t *testing.T) {
			rec := &progress.Recorder{}
			s := NewSynthesizer(model, rec, nil, Options{RequestInterval: -1})
			job := testJob(t.TempDir(), map[string]string{"Hindi": "namaste"})
			path, ok := s.Synthesize(context.Background(), job)
			if ok || path != "" {
				t.Fatalf("expected failure, got %q %v", path, ok)
			}
			if _, err := os.Stat(job.OutputPath); !os.IsNotExist(err) {
				t.Fatalf("clip should not exist: %v", err)
			}
			if !rec.Contains("skipped") {
				t.Fatalf("failure not reported: %v", rec.Texts())
			}
		})
	}
}

func TestSynthesizeSpacesRequests(t *testing.T) {
	clock := time.Unix(100, 0)
	var waits []time.Duration
	model := &fakeSpeech{pcm: pcmSamples(10, 1)}
	s := NewSynthesizer(model, nil, nil, Options{RequestInterval: 2 * time.Second},
		WithClock(func() time.Time { return clock }),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			clock = clock.Add(d)
			return nil
		}),
	)
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		job := testJob(dir, map[string]string{"Hindi": "x"})
		job.Index = i
		job.OutputPath = filepath.Join(dir, "clip.wav")
		if _, ok := s.Synthesize(context.Background(), job); !ok {
			t.Fatalf("segment %d failed", i)
		}
		clock = clock.Add(500 * time.Millisecond)
	}
	if len(waits) != 2 {
		t.Fatalf("expected 2 waits, got %v", waits)
	}
	for _, w := range waits {
		if w != 1500*time.Millisecond {
			t.Fatalf("unexpected wait %s", w)
		}
	}
}

func TestSynthesizeCancelledDuringWait(t *testing.T) {
	model := &fakeSpeech{pcm: pcmSamples(10, 1)}
	s := NewSynthesizer(model, nil, nil, Options{RequestInterval: time.Hour})
	dir := t.TempDir()
	if _, ok := s.Synthesize(context.Background(), testJob(dir, nil)); !ok {
		t.Fatal("first request should not wait")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := s.Synthesize(ctx, testJob(dir, nil)); ok {
		t.Fatal("expected cancelled synthesis to fail")
	}
	if len(model.requests) != 1 {
		t.Fatalf("cancelled job must not reach the model, got %d requests", len(model.requests))
	}
}
