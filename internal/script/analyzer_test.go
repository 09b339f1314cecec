package script

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dubber/internal/services"
)

type fakeModelService struct {
	mu         sync.Mutex
	uploadErr  error
	states     []FileState
	polls      int
	generate   string
	genErr     error
	prompt     string
	model      string
	deleted    []string
	deleteCtxs []error
}

func (f *fakeModelService) UploadFile(_ context.Context, path, mimeType string) (RemoteFile, error) {
	if f.uploadErr != nil {
		return RemoteFile{}, f.uploadErr
	}
	return RemoteFile{Name: "files/abc", URI: "https://files/abc", MIMEType: mimeType, State: FileStateProcessing}, nil
}

func (f *fakeModelService) GetFile(_ context.Context, name string) (RemoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := FileStateProcessing
	if f.polls < len(f.states) {
		state = f.states[f.polls]
	}
	f.polls++
	return RemoteFile{Name: name, URI: "https://files/abc", MIMEType: "video/mp4", State: state}, nil
}

func (f *fakeModelService) DeleteFile(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	f.deleteCtxs = append(f.deleteCtxs, ctx.Err())
	return nil
}

func (f *fakeModelService) GenerateText(_ context.Context, model string, file RemoteFile, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = model
	f.prompt = prompt
	return f.generate, f.genErr
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func testOptions() Options {
	return Options{InputLanguage: "English", OutputLanguage: "Hindi", Model: "gemini-test", PollInterval: time.Second, MaxWait: time.Minute}
}

func TestAnalyzeHappyPath(t *testing.T) {
	svc := &fakeModelService{
		states:   []FileState{FileStateProcessing, FileStateActive},
		generate: "```json\n" + twoSegments + "\n```",
	}
	a := NewAnalyzer(svc, nil, WithSleeper(noSleep))
	s, err := a.Analyze(context.Background(), "/videos/clip.mp4", testOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(s.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(s.Segments))
	}
	if svc.polls != 2 {
		t.Fatalf("expected 2 polls, got %d", svc.polls)
	}
	if svc.model != "gemini-test" || !strings.Contains(svc.prompt, "Hindi_translation") {
		t.Fatalf("unexpected generate call model=%q", svc.model)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != "files/abc" {
		t.Fatalf("expected remote file deleted once, got %v", svc.deleted)
	}
}

func TestAnalyzeFailedFileStillDeletes(t *testing.T) {
	svc := &fakeModelService{states: []FileState{FileStateFailed}}
	a := NewAnalyzer(svc, nil, WithSleeper(noSleep))
	_, err := a.Analyze(context.Background(), "clip.mov", testOptions())
	if !errors.Is(err, ErrFileFailed) {
		t.Fatalf("expected ErrFileFailed, got %v", err)
	}
	if len(svc.deleted) != 1 {
		t.Fatalf("expected delete after failure, got %v", svc.deleted)
	}
}

func TestAnalyzeReadyTimeout(t *testing.T) {
	svc := &fakeModelService{}
	clock := time.Unix(0, 0)
	a := NewAnalyzer(svc, nil,
		WithClock(func() time.Time { return clock }),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			clock = clock.Add(d)
			return nil
		}),
	)
	opts := testOptions()
	opts.PollInterval = 10 * time.Second
	opts.MaxWait = 30 * time.Second
	_, err := a.Analyze(context.Background(), "clip.mp4", opts)
	var timeoutErr *ReadyTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected ReadyTimeoutError, got %v", err)
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout marker, got %v", err)
	}
	if svc.polls != 3 {
		t.Fatalf("expected 3 polls before giving up, got %d", svc.polls)
	}
	if len(svc.deleted) != 1 {
		t.Fatalf("expected delete after timeout, got %v", svc.deleted)
	}
}

func TestAnalyzeCancelledContextStillDeletes(t *testing.T) {
	svc := &fakeModelService{}
	ctx, cancel := context.WithCancel(context.Background())
	a := NewAnalyzer(svc, nil, WithSleeper(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	_, err := a.Analyze(ctx, "clip.mp4", testOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(svc.deleted) != 1 {
		t.Fatalf("expected delete after cancel, got %v", svc.deleted)
	}
	if svc.deleteCtxs[0] != nil {
		t.Fatalf("delete ran with a cancelled context: %v", svc.deleteCtxs[0])
	}
}

func TestAnalyzeUploadFailureSkipsDelete(t *testing.T) {
	svc := &fakeModelService{uploadErr: errors.New("quota")}
	a := NewAnalyzer(svc, nil, WithSleeper(noSleep))
	_, err := a.Analyze(context.Background(), "clip.mp4", testOptions())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(svc.deleted) != 0 {
		t.Fatalf("nothing to delete, got %v", svc.deleted)
	}
}

func TestAnalyzeBadResponseIsValidationError(t *testing.T) {
	svc := &fakeModelService{states: []FileState{FileStateActive}, generate: "sorry, no dialogue found"}
	a := NewAnalyzer(svc, nil, WithSleeper(noSleep))
	_, err := a.Analyze(context.Background(), "clip.mp4", testOptions())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(svc.deleted) != 1 {
		t.Fatalf("expected delete, got %v", svc.deleted)
	}
}

func TestAnalyzeRequiresModel(t *testing.T) {
	a := NewAnalyzer(&fakeModelService{}, nil)
	opts := testOptions()
	opts.Model = ""
	if _, err := a.Analyze(context.Background(), "clip.mp4", opts); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
