package tts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dubber/internal/logging"
	"dubber/internal/media/wavio"
	"dubber/internal/progress"
	"dubber/internal/script"
	"dubber/internal/services"
)

const (
	// PlaceholderText is spoken when a segment has no translation.
	PlaceholderText = "..."

	DefaultSampleRate      = 24000
	DefaultChannels        = 1
	DefaultRequestInterval = 2 * time.Second
)

// SpeechRequest is one TTS call.
type SpeechRequest struct {
	Prompt string
	Voice  string
	Text   string
}

// SpeechModel returns raw little-endian 16-bit PCM for a request.
type SpeechModel interface {
	Speak(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// Job is one segment to voice.
type Job struct {
	Index      int
	Total      int
	Segment    script.Segment
	Voice      string
	Language   string
	OutputPath string
}

// Options configures the PCM layout and request pacing.
type Options struct {
	SampleRate int
	Channels   int
	// RequestInterval is the minimum spacing between consecutive requests.
	RequestInterval time.Duration
}

// Synthesizer voices segments sequentially. It is not safe for concurrent
// use; segments are voiced strictly one at a time.
type Synthesizer struct {
	model    SpeechModel
	sink     progress.Sink
	logger   *slog.Logger
	format   wavio.Format
	interval time.Duration
	sleep    func(context.Context, time.Duration) error
	now      func() time.Time
	last     time.Time
}

// Option customizes a Synthesizer.
type Option func(*Synthesizer)

// WithSleeper overrides how request spacing waits are performed.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(s *Synthesizer) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithClock overrides the time source used for request spacing.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSynthesizer builds a synthesizer. A negative RequestInterval disables
// spacing; zero uses the default.
func NewSynthesizer(model SpeechModel, sink progress.Sink, logger *slog.Logger, opts Options, options ...Option) *Synthesizer {
	if sink == nil {
		sink = progress.Discard
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	format := wavio.Format{SampleRate: opts.SampleRate, Channels: opts.Channels}
	if format.SampleRate <= 0 {
		format.SampleRate = DefaultSampleRate
	}
	if format.Channels <= 0 {
		format.Channels = DefaultChannels
	}
	interval := opts.RequestInterval
	switch {
	case interval == 0:
		interval = DefaultRequestInterval
	case interval < 0:
		interval = 0
	}
	s := &Synthesizer{
		model:    model,
		sink:     sink,
		logger:   logger.With(logging.String(logging.FieldComponent, "tts")),
		format:   format,
		interval: interval,
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Format reports the layout of the clips the synthesizer writes.
func (s *Synthesizer) Format() wavio.Format {
	return s.format
}

// Synthesize voices job and writes the clip to job.OutputPath. ok is false
// when no usable audio was produced; the caller substitutes silence.
func (s *Synthesizer) Synthesize(ctx context.Context, job Job) (path string, ok bool) {
	ctx = services.WithSegment(ctx, job.Index)
	logger := logging.WithContext(ctx, s.logger)

	text, found := job.Segment.Translation(job.Language)
	if !found || strings.TrimSpace(text) == "" {
		text = PlaceholderText
	}
	s.sink.Log(fmt.Sprintf("Synthesizing %s: '%s' for %s", s.position(job), preview(text), job.Segment.SpeakerLabel))

	if s.model == nil {
		s.fail(logger, job, "speech model unavailable", nil)
		return "", false
	}
	if err := s.pace(ctx); err != nil {
		s.fail(logger, job, "synthesis cancelled", err)
		return "", false
	}

	prompt := BuildPrompt(NewPromptInput(job.Segment, job.Language, text))
	started := s.now()
	pcm, err := s.model.Speak(ctx, SpeechRequest{Prompt: prompt, Voice: job.Voice, Text: text})
	s.last = s.now()
	if err != nil {
		s.fail(logger, job, "speech request failed", err)
		return "", false
	}
	if len(pcm) < 2 {
		s.fail(logger, job, "speech model returned no audio", nil)
		return "", false
	}

	buf := wavio.FromPCM16(pcm, s.format)
	if err := wavio.Write(job.OutputPath, buf); err != nil {
		s.fail(logger, job, "write clip failed", err)
		return "", false
	}
	logger.Debug("segment synthesized",
		logging.String(logging.FieldEventType, "segment_synthesized"),
		logging.String("voice", job.Voice),
		logging.Int("clip_ms", wavio.DurationMillis(buf)),
		logging.Int("slot_ms", job.Segment.DurationMillis()),
		logging.Duration("elapsed", s.now().Sub(started)),
	)
	return job.OutputPath, true
}

func (s *Synthesizer) pace(ctx context.Context) error {
	if s.interval <= 0 || s.last.IsZero() {
		return ctx.Err()
	}
	wait := s.interval - s.now().Sub(s.last)
	if wait <= 0 {
		return ctx.Err()
	}
	return s.sleep(ctx, wait)
}

func (s *Synthesizer) fail(logger *slog.Logger, job Job, reason string, err error) {
	msg := fmt.Sprintf("Segment %s skipped: %s", s.position(job), reason)
	attrs := []logging.Attr{
		logging.String("speaker", job.Segment.SpeakerLabel),
		logging.String("voice", job.Voice),
		logging.String(logging.FieldErrorHint, "check the TTS provider quota and credentials"),
		logging.String(logging.FieldImpact, "segment is left silent in the dub"),
	}
	if err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, err)
		attrs = append(attrs, logging.Error(err))
	}
	s.sink.Log(msg)
	logging.WarnWithContext(logger, "segment synthesis failed", "segment_skipped", attrs...)
}

func (s *Synthesizer) position(job Job) string {
	if job.Total > 0 {
		return fmt.Sprintf("%d/%d", job.Index+1, job.Total)
	}
	return fmt.Sprintf("%d", job.Index+1)
}

func preview(text string) string {
	const limit = 40
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
