package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteConstantWAV writes a 16-bit WAV where every sample equals value.
func WriteConstantWAV(t testing.TB, path string, sampleRate, channels int, duration float64, value int) {
	t.Helper()
	frames := int(math.Round(duration * float64(sampleRate)))
	data := make([]int, frames*channels)
	for i := range data {
		data[i] = value
	}
	writeWAV(t, path, sampleRate, channels, data)
}

// WriteToneWAV writes a 16-bit sine tone at 440 Hz with the given peak amplitude.
func WriteToneWAV(t testing.TB, path string, sampleRate, channels int, duration float64, amplitude int) {
	t.Helper()
	frames := int(math.Round(duration * float64(sampleRate)))
	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := int(float64(amplitude) * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		for c := 0; c < channels; c++ {
			data[i*channels+c] = v
		}
	}
	writeWAV(t, path, sampleRate, channels, data)
}

// ReadWAV decodes a WAV file written by the code under test.
func ReadWAV(t testing.TB, path string) *audio.IntBuffer {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("%s is not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return buf
}

func writeWAV(t testing.TB, path string, sampleRate, channels int, data []int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder %s: %v", path, err)
	}
}
