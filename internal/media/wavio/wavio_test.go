package wavio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "clip.wav")
	buf := Silence(Format{SampleRate: 8000, Channels: 2}, 250)
	for i := range buf.Data {
		buf.Data[i] = i % 100
	}
	if err := Write(path, buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(path + ".partial"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f := FormatOf(got); f.SampleRate != 8000 || f.Channels != 2 {
		t.Fatalf("unexpected format %+v", f)
	}
	if len(got.Data) != 4000 || got.Data[199] != 99 {
		t.Fatalf("unexpected samples len=%d", len(got.Data))
	}
	if DurationMillis(got) != 250 {
		t.Fatalf("duration = %d", DurationMillis(got))
	}
	f, err := ReadFormat(path)
	if err != nil || f != (Format{SampleRate: 8000, Channels: 2}) {
		t.Fatalf("ReadFormat = %+v %v", f, err)
	}
}

func TestReadRejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("expected ErrInvalidFile, got %v", err)
	}
}

func TestFromPCM16(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x80, 0xff, 0x7f, 0x09}
	buf := FromPCM16(pcm, Format{SampleRate: 24000, Channels: 1})
	want := []int{1, -1, -32768, 32767}
	if len(buf.Data) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(buf.Data))
	}
	for i, v := range want {
		if buf.Data[i] != v {
			t.Fatalf("sample %d = %d want %d", i, buf.Data[i], v)
		}
	}
}

func TestSaturate(t *testing.T) {
	cases := map[int]int{40000: 32767, -40000: -32768, 12: 12}
	for in, want := range cases {
		if got := Saturate(in); got != want {
			t.Fatalf("Saturate(%d) = %d want %d", in, got, want)
		}
	}
}

func TestFramesFor(t *testing.T) {
	if FramesFor(44100, 1000) != 44100 || FramesFor(24000, 5) != 120 || FramesFor(44100, -1) != 0 {
		t.Fatal("unexpected frame conversion")
	}
}
