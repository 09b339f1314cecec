package ffprobe

import (
	"context"
	"errors"
	"testing"
	"time"

	"dubber/internal/process"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 || !result.HasAudio() {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.Duration() != 123450*time.Millisecond {
		t.Fatalf("unexpected duration: %v", result.Duration())
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Duration: "9.5"}, {CodecType: "audio", Duration: "10.0"}},
		Format:  Format{Duration: "N/A"},
	}
	if result.DurationSeconds() != 10 {
		t.Fatalf("expected longest stream duration, got %v", result.DurationSeconds())
	}
	invalid := Result{Format: Format{Duration: "bad"}}
	if invalid.DurationSeconds() != 0 {
		t.Fatalf("expected zero for invalid duration, got %v", invalid.DurationSeconds())
	}
}

func TestProberInspectDecodesOutput(t *testing.T) {
	var got process.Command
	runner := process.RunnerFunc(func(_ context.Context, cmd process.Command) (process.Result, error) {
		got = cmd
		return process.Result{Stdout: []byte(`{"streams":[{"index":0,"codec_type":"video"},{"index":1,"codec_type":"audio","sample_rate":"48000","channels":2}],"format":{"duration":"10.000000"}}`)}, nil
	})
	prober := NewProber("", runner)
	d, err := prober.Duration(context.Background(), "/videos/in.mp4")
	if err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	if d != 10*time.Second {
		t.Fatalf("unexpected duration %v", d)
	}
	if got.Name != "ffprobe" {
		t.Fatalf("unexpected binary %q", got.Name)
	}
	if last := got.Args[len(got.Args)-1]; last != "/videos/in.mp4" {
		t.Fatalf("expected path as final argument, got %q", last)
	}
}

func TestProberPropagatesRunnerError(t *testing.T) {
	boom := errors.New("boom")
	prober := NewProber("ffprobe", process.RunnerFunc(func(context.Context, process.Command) (process.Result, error) {
		return process.Result{}, boom
	}))
	if _, err := prober.Inspect(context.Background(), "x.mp4"); !errors.Is(err, boom) {
		t.Fatalf("expected runner error, got %v", err)
	}
	if _, err := prober.Inspect(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
