package wavio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// BitDepth is the only sample width this package produces.
const BitDepth = 16

const (
	maxSample = math.MaxInt16
	minSample = math.MinInt16
)

// ErrInvalidFile reports a file that does not decode as WAV.
var ErrInvalidFile = errors.New("not a valid wav file")

// Format describes the sample layout of a buffer.
type Format struct {
	SampleRate int
	Channels   int
}

// FormatOf returns the layout of buf.
func FormatOf(buf *audio.IntBuffer) Format {
	if buf == nil || buf.Format == nil {
		return Format{}
	}
	return Format{SampleRate: buf.Format.SampleRate, Channels: buf.Format.NumChannels}
}

// Silence allocates a zeroed buffer holding durationMs of audio.
func Silence(f Format, durationMs int) *audio.IntBuffer {
	frames := FramesFor(f.SampleRate, durationMs)
	return &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: f.SampleRate, NumChannels: f.Channels},
		Data:           make([]int, frames*f.Channels),
		SourceBitDepth: BitDepth,
	}
}

// FramesFor converts milliseconds to a frame count at sampleRate.
func FramesFor(sampleRate, ms int) int {
	if ms <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(int64(ms) * int64(sampleRate) / 1000)
}

// DurationMillis reports the length of buf.
func DurationMillis(buf *audio.IntBuffer) int {
	f := FormatOf(buf)
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := len(buf.Data) / f.Channels
	return int(int64(frames) * 1000 / int64(f.SampleRate))
}

// Saturate clamps v to the int16 range.
func Saturate(v int) int {
	switch {
	case v > maxSample:
		return maxSample
	case v < minSample:
		return minSample
	default:
		return v
	}
}

// FromPCM16 decodes little-endian signed 16-bit interleaved samples. A
// trailing odd byte is ignored.
func FromPCM16(pcm []byte, f Format) *audio.IntBuffer {
	data := make([]int, len(pcm)/2)
	for i := range data {
		data[i] = int(int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8))
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: f.SampleRate, NumChannels: f.Channels},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
}

// Read decodes the WAV file at path.
func Read(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidFile)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if dec.BitDepth != BitDepth {
		return nil, fmt.Errorf("%s: unsupported bit depth %d", path, dec.BitDepth)
	}
	if buf.Format == nil {
		buf.Format = &audio.Format{}
	}
	buf.Format.SampleRate = int(dec.SampleRate)
	buf.Format.NumChannels = int(dec.NumChans)
	return buf, nil
}

// ReadFormat returns the sample layout of the WAV file at path without
// decoding its samples.
func ReadFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Format{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if !dec.IsValidFile() {
		return Format{}, fmt.Errorf("%s: %w", path, ErrInvalidFile)
	}
	return Format{SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans)}, nil
}

// Write encodes buf as a 16-bit WAV at path, writing through a temporary
// file so a failed export never leaves a truncated file behind.
func Write(path string, buf *audio.IntBuffer) error {
	f := FormatOf(buf)
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return fmt.Errorf("write %s: buffer has no format", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp := path + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	enc := wav.NewEncoder(out, f.SampleRate, BitDepth, f.Channels, 1)
	buf.SourceBitDepth = BitDepth
	if err := enc.Write(buf); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
