package ffmpeg_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"dubber/internal/logging"
	"dubber/internal/media/ffmpeg"
	"dubber/internal/media/ffprobe"
	"dubber/internal/process"
	"dubber/internal/services"
	"dubber/internal/testsupport"
)

func TestExtractAudioBuildsPCMCommand(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "in.mp4")
	testsupport.WriteFile(t, video, 16)
	dest := filepath.Join(dir, "audio.wav")

	runner := &testsupport.FakeRunner{Handler: testsupport.WriteLastArg([]byte("RIFF"))}
	tool := ffmpeg.New("ffmpeg", logging.NewNop(), ffmpeg.WithRunner(runner))
	if err := tool.ExtractAudio(context.Background(), video, dest, 44100, 2); err != nil {
		t.Fatalf("ExtractAudio returned error: %v", err)
	}

	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one command, got %d", len(calls))
	}
	args := strings.Join(calls[0].Args, " ")
	for _, fragment := range []string{"-i " + video, "-vn", "-acodec pcm_s16le", "-ar 44100", "-ac 2"} {
		if !strings.Contains(args, fragment) {
			t.Fatalf("expected %q in args %q", fragment, args)
		}
	}
	if calls[0].Args[len(calls[0].Args)-1] != dest {
		t.Fatalf("expected dest as final arg, got %v", calls[0].Args)
	}
}

func TestExtractAudioRejectsSilentVideo(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "in.mp4")
	testsupport.WriteFile(t, video, 16)

	probeRunner := process.RunnerFunc(func(context.Context, process.Command) (process.Result, error) {
		return process.Result{Stdout: []byte(`{"streams":[{"codec_type":"video"}],"format":{"duration":"4"}}`)}, nil
	})
	runner := &testsupport.FakeRunner{}
	tool := ffmpeg.New("ffmpeg", nil,
		ffmpeg.WithRunner(runner),
		ffmpeg.WithProber(ffprobe.NewProber("ffprobe", probeRunner)),
	)
	err := tool.ExtractAudio(context.Background(), video, filepath.Join(dir, "a.wav"), 44100, 2)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(runner.Calls()) != 0 {
		t.Fatal("ffmpeg should not run when the video has no audio")
	}
}

func TestExtractAudioMissingOutput(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "in.mp4")
	testsupport.WriteFile(t, video, 16)
	tool := ffmpeg.New("ffmpeg", nil, ffmpeg.WithRunner(&testsupport.FakeRunner{}))
	err := tool.ExtractAudio(context.Background(), video, filepath.Join(dir, "a.wav"), 0, 0)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestConvertWAVArgs(t *testing.T) {
	dir := t.TempDir()
	runner := &testsupport.FakeRunner{Handler: testsupport.WriteLastArg([]byte("RIFF"))}
	tool := ffmpeg.New("", nil, ffmpeg.WithRunner(runner))
	dest := filepath.Join(dir, "out.wav")
	if err := tool.ConvertWAV(context.Background(), filepath.Join(dir, "in.wav"), dest, 48000, 1); err != nil {
		t.Fatalf("ConvertWAV returned error: %v", err)
	}
	call := runner.Calls()[0]
	if call.Name != "ffmpeg" {
		t.Fatalf("expected default binary, got %q", call.Name)
	}
	if !slices.Contains(call.Args, "48000") || !slices.Contains(call.Args, "pcm_s16le") {
		t.Fatalf("unexpected args %v", call.Args)
	}
}

func TestMuxWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "in.mp4")
	audio := filepath.Join(dir, "mix.wav")
	testsupport.WriteFile(t, video, 8)
	testsupport.WriteFile(t, audio, 8)
	output := filepath.Join(dir, "out", "dubbed.mp4")

	var tmpArg string
	runner := &testsupport.FakeRunner{Handler: func(cmd process.Command) (process.Result, error) {
		tmpArg = cmd.Args[len(cmd.Args)-1]
		return testsupport.WriteLastArg([]byte("video"))(cmd)
	}}
	muxer := ffmpeg.NewMuxer("ffmpeg", "", "", logging.NewNop()).WithRunner(runner)
	got, err := muxer.Mux(context.Background(), ffmpeg.MuxRequest{VideoPath: video, AudioPath: audio, OutputPath: output})
	if err != nil {
		t.Fatalf("Mux returned error: %v", err)
	}
	if got != output {
		t.Fatalf("unexpected output %q", got)
	}
	if filepath.Ext(tmpArg) != ".mp4" || !strings.HasPrefix(filepath.Base(tmpArg), ".mux-") {
		t.Fatalf("unexpected temp path %q", tmpArg)
	}
	if _, err := os.Stat(tmpArg); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed, stat err=%v", err)
	}
	args := strings.Join(runner.Calls()[0].Args, " ")
	for _, fragment := range []string{"-map 0:v:0", "-map 1:a:0", "-c:v libx264", "-c:a aac"} {
		if !strings.Contains(args, fragment) {
			t.Fatalf("expected %q in args %q", fragment, args)
		}
	}
}

func TestMuxFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "in.mp4")
	audio := filepath.Join(dir, "mix.wav")
	testsupport.WriteFile(t, video, 8)
	testsupport.WriteFile(t, audio, 8)
	output := filepath.Join(dir, "dubbed.mp4")

	runner := &testsupport.FakeRunner{Handler: func(cmd process.Command) (process.Result, error) {
		_, _ = testsupport.WriteLastArg([]byte("partial"))(cmd)
		return process.Result{ExitCode: 1}, &process.ExitError{Command: "ffmpeg", ExitCode: 1, Stderr: "encoder missing"}
	}}
	_, err := ffmpeg.NewMuxer("ffmpeg", "libx264", "aac", nil).WithRunner(runner).Mux(context.Background(),
		ffmpeg.MuxRequest{VideoPath: video, AudioPath: audio, OutputPath: output})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".mux-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatal("output should not exist after failure")
	}
}
