package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"

	"dubber/internal/logging"
	"dubber/internal/media/wavio"
	"dubber/internal/progress"
	"dubber/internal/services"
)

// Converter resamples a WAV file into another layout.
type Converter interface {
	ConvertWAV(ctx context.Context, src, dest string, sampleRate, channels int) error
}

// Clip is a synthesized line placed on the timeline.
type Clip struct {
	Index        int
	Path         string
	StartMillis  int
	TargetMillis int
}

// Plan describes one mix.
type Plan struct {
	DurationMillis int
	// BackgroundPath is the separated accompaniment; empty means silence.
	BackgroundPath string
	Clips          []Clip
	OutputPath     string
	// WorkDir holds intermediate files. Defaults to the output directory.
	WorkDir string
}

// Summary reports what Compose did.
type Summary struct {
	Path      string
	Placed    int
	Stretched int
	Skipped   int
	Warnings  []string
}

// Compositor mixes clips over a background into a single WAV.
type Compositor struct {
	format    wavio.Format
	stretcher Stretcher
	converter Converter
	sink      progress.Sink
	logger    *slog.Logger
}

// NewCompositor builds a compositor producing audio in format. A nil
// stretcher disables time fitting; a nil converter rejects clips whose
// layout differs from format.
func NewCompositor(format wavio.Format, stretcher Stretcher, converter Converter, sink progress.Sink, logger *slog.Logger) *Compositor {
	if format.SampleRate <= 0 {
		format.SampleRate = 44100
	}
	if format.Channels <= 0 {
		format.Channels = 2
	}
	if sink == nil {
		sink = progress.Discard
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Compositor{
		format:    format,
		stretcher: stretcher,
		converter: converter,
		sink:      sink,
		logger:    logger.With(logging.String(logging.FieldComponent, "timeline")),
	}
}

// Compose builds background + vocals and exports the mix to plan.OutputPath.
// Per-clip problems are recorded as warnings and never fail the mix.
func (c *Compositor) Compose(ctx context.Context, plan Plan) (Summary, error) {
	summary := Summary{}
	if plan.DurationMillis <= 0 {
		return summary, services.Wrap(services.ErrValidation, "compositing", "compose", fmt.Sprintf("invalid duration %dms", plan.DurationMillis), nil)
	}
	if strings.TrimSpace(plan.OutputPath) == "" {
		return summary, services.Wrap(services.ErrValidation, "compositing", "compose", "output path is empty", nil)
	}
	workDir := plan.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(plan.OutputPath)
	}
	logger := logging.WithContext(ctx, c.logger)
	warn := func(msg string, attrs ...logging.Attr) {
		summary.Warnings = append(summary.Warnings, msg)
		c.sink.Log(msg)
		logging.WarnWithContext(logger, msg, "composite_degraded", attrs...)
	}

	background, err := c.loadBackground(ctx, plan.BackgroundPath, workDir)
	if err != nil {
		warn("Could not use background track; using a silent background", logging.Error(err))
		background = nil
	}
	if background == nil {
		background = wavio.Silence(c.format, plan.DurationMillis)
	} else {
		background = fitLength(background, wavio.FramesFor(c.format.SampleRate, plan.DurationMillis))
	}

	vocal := wavio.Silence(c.format, plan.DurationMillis)

	for _, clip := range plan.Clips {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		stretched, err := c.placeClip(ctx, vocal, clip, workDir, warn)
		if err != nil {
			summary.Skipped++
			warn(fmt.Sprintf("Segment %d could not be placed and will be silent", clip.Index), logging.Int(logging.FieldSegment, clip.Index), logging.Error(err))
			continue
		}
		summary.Placed++
		if stretched {
			summary.Stretched++
		}
	}

	Overlay(background, vocal, 0)
	if err := wavio.Write(plan.OutputPath, background); err != nil {
		return summary, services.Wrap(services.ErrExternalTool, "compositing", "export mix", plan.OutputPath, err)
	}
	summary.Path = plan.OutputPath
	logger.Info("soundtrack composed",
		logging.String(logging.FieldEventType, "composite_complete"),
		logging.Int("duration_ms", plan.DurationMillis),
		logging.Int("placed", summary.Placed),
		logging.Int("stretched", summary.Stretched),
		logging.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (c *Compositor) loadBackground(ctx context.Context, path, workDir string) (*audio.IntBuffer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	buf, _, err := c.loadInFormat(ctx, path, filepath.Join(workDir, "background_converted.wav"))
	return buf, err
}

// placeClip overlays one clip onto vocal and removes its files.
func (c *Compositor) placeClip(ctx context.Context, vocal *audio.IntBuffer, clip Clip, workDir string, warn func(string, ...logging.Attr)) (bool, error) {
	converted := filepath.Join(workDir, fmt.Sprintf("segment_%d_converted.wav", clip.Index))
	stretchedPath := filepath.Join(workDir, fmt.Sprintf("segment_%d_stretched.wav", clip.Index))
	refitted := filepath.Join(workDir, fmt.Sprintf("segment_%d_refit.wav", clip.Index))
	defer func() {
		for _, p := range []string{clip.Path, converted, stretchedPath, refitted} {
			_ = os.Remove(p)
		}
	}()

	buf, source, err := c.loadInFormat(ctx, clip.Path, converted)
	if err != nil {
		return false, err
	}

	stretched := false
	originalMs := wavio.DurationMillis(buf)
	if ratio, apply := StretchRatio(originalMs, clip.TargetMillis); apply && c.stretcher != nil {
		c.sink.Log(fmt.Sprintf("Adjusting speed for segment %d. Ratio: %.2f (Original: %dms, Target: %dms)", clip.Index, ratio, originalMs, clip.TargetMillis))
		if err := c.stretcher.Stretch(ctx, source, stretchedPath, ratio); err != nil {
			warn(fmt.Sprintf("Could not time-stretch segment %d; using original timing", clip.Index), logging.Int(logging.FieldSegment, clip.Index), logging.Error(err))
		} else if fitted, _, err := c.loadInFormat(ctx, stretchedPath, refitted); err != nil {
			warn(fmt.Sprintf("Could not read stretched segment %d; using original timing", clip.Index), logging.Int(logging.FieldSegment, clip.Index), logging.Error(err))
		} else {
			buf = fitted
			stretched = true
		}
	}

	Overlay(vocal, buf, wavio.FramesFor(c.format.SampleRate, clip.StartMillis))
	return stretched, nil
}

// loadInFormat reads path, converting it to the timeline layout through
// convertedPath when needed. It returns the file the samples came from.
func (c *Compositor) loadInFormat(ctx context.Context, path, convertedPath string) (*audio.IntBuffer, string, error) {
	buf, err := wavio.Read(path)
	if err != nil {
		return nil, "", err
	}
	if wavio.FormatOf(buf) == c.format {
		return buf, path, nil
	}
	if c.converter == nil {
		return nil, "", fmt.Errorf("%s is %+v, expected %+v", filepath.Base(path), wavio.FormatOf(buf), c.format)
	}
	if err := c.converter.ConvertWAV(ctx, path, convertedPath, c.format.SampleRate, c.format.Channels); err != nil {
		return nil, "", err
	}
	converted, err := wavio.Read(convertedPath)
	if err != nil {
		return nil, "", err
	}
	if got := wavio.FormatOf(converted); got != c.format {
		return nil, "", fmt.Errorf("conversion produced %+v, expected %+v", got, c.format)
	}
	return converted, convertedPath, nil
}

// Overlay adds src into dst starting at frame offset, saturating to int16
// and truncating at the end of dst. Both buffers must share a channel count.
func Overlay(dst, src *audio.IntBuffer, offset int) {
	if dst == nil || src == nil || offset < 0 {
		return
	}
	channels := wavio.FormatOf(dst).Channels
	if channels <= 0 {
		channels = 1
	}
	start := offset * channels
	if start >= len(dst.Data) {
		return
	}
	n := len(src.Data)
	if remaining := len(dst.Data) - start; n > remaining {
		n = remaining
	}
	for i := 0; i < n; i++ {
		dst.Data[start+i] = wavio.Saturate(dst.Data[start+i] + src.Data[i])
	}
}

// fitLength pads buf with silence or truncates it to exactly frames frames.
func fitLength(buf *audio.IntBuffer, frames int) *audio.IntBuffer {
	channels := wavio.FormatOf(buf).Channels
	want := frames * channels
	switch {
	case len(buf.Data) > want:
		buf.Data = buf.Data[:want]
	case len(buf.Data) < want:
		buf.Data = append(buf.Data, make([]int, want-len(buf.Data))...)
	}
	return buf
}
