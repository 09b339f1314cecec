package dubbing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dubber/internal/fileutil"
	"dubber/internal/logging"
	"dubber/internal/media/ffmpeg"
	"dubber/internal/media/wavio"
	"dubber/internal/notifications"
	"dubber/internal/progress"
	"dubber/internal/script"
	"dubber/internal/services"
	"dubber/internal/staging"
	"dubber/internal/textutil"
	"dubber/internal/timeline"
	"dubber/internal/tts"
	"dubber/internal/voices"
)

// Extractor pulls the audio track out of a video.
type Extractor interface {
	ExtractAudio(ctx context.Context, video, dest string, sampleRate, channels int) error
}

// Separator splits extracted audio and returns the background stem path.
type Separator interface {
	Separate(ctx context.Context, audioPath, outDir string) (string, error)
}

// ScriptAnalyzer produces the dialogue script for a video.
type ScriptAnalyzer interface {
	Analyze(ctx context.Context, videoPath string, opts script.Options) (*script.Script, error)
}

// VoiceAssigner maps speakers to voices.
type VoiceAssigner interface {
	Assign(s *script.Script) voices.Assignment
}

// Synthesizer voices one segment.
type Synthesizer interface {
	Synthesize(ctx context.Context, job tts.Job) (string, bool)
}

// Compositor mixes the clips over the background.
type Compositor interface {
	Compose(ctx context.Context, plan timeline.Plan) (timeline.Summary, error)
}

// Muxer replaces the video's audio track.
type Muxer interface {
	Mux(ctx context.Context, req ffmpeg.MuxRequest) (string, error)
}

// Prober reports media duration.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Publisher uploads the finished video and returns its URI.
type Publisher interface {
	Publish(ctx context.Context, localPath string) (string, error)
}

// Deps are the collaborators of a pipeline. Separator, Prober, Publisher and
// Notifier are optional.
type Deps struct {
	Extractor  Extractor
	Separator  Separator
	Analyzer   ScriptAnalyzer
	Assigner   VoiceAssigner
	Synth      Synthesizer
	Compositor Compositor
	Muxer      Muxer
	Prober     Prober
	Publisher  Publisher
	Notifier   notifications.Service
	Sink       progress.Sink
}

// Options holds per-installation settings.
type Options struct {
	WorkDir     string
	OutputDir   string
	KeepWorkDir bool
	// SaveAudio copies the final mix next to the output video.
	SaveAudio bool
	// StaleAfter removes idle run directories older than this before a run
	// starts. Zero disables the sweep.
	StaleAfter time.Duration
	// Format is the layout used for extraction and the final mix.
	Format wavio.Format
	// Analysis carries the model settings; languages come from the Request.
	Analysis script.Options
}

// Request describes one dubbing run.
type Request struct {
	// RunID names the run directory and tags logs. Empty generates one.
	RunID          string
	VideoPath      string
	OutputPath     string // empty means <output_dir>/dubbed_<name>.mp4
	InputLanguage  string
	OutputLanguage string
}

// Result describes a completed run.
type Result struct {
	RunID        string
	OutputPath   string
	AudioPath    string
	PublishedURI string
	Script       *script.Script
	Assignment   voices.Assignment
	Placed       int
	Skipped      int
	Stretched    int
	Warnings     []Warning
	Elapsed      time.Duration
}

// Pipeline orchestrates a dubbing run. A Pipeline may run several requests
// concurrently; each run owns its own work directory.
type Pipeline struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New validates deps and returns a pipeline.
func New(deps Deps, opts Options, logger *slog.Logger) (*Pipeline, error) {
	missing := make([]string, 0, 6)
	if deps.Extractor == nil {
		missing = append(missing, "extractor")
	}
	if deps.Analyzer == nil {
		missing = append(missing, "analyzer")
	}
	if deps.Assigner == nil {
		missing = append(missing, "voice assigner")
	}
	if deps.Synth == nil {
		missing = append(missing, "synthesizer")
	}
	if deps.Compositor == nil {
		missing = append(missing, "compositor")
	}
	if deps.Muxer == nil {
		missing = append(missing, "muxer")
	}
	if len(missing) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "pipeline", "missing "+strings.Join(missing, ", "), nil)
	}
	if strings.TrimSpace(opts.WorkDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "pipeline", "work directory is required", nil)
	}
	if deps.Sink == nil {
		deps.Sink = progress.Discard
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}
	if opts.Format.SampleRate <= 0 {
		opts.Format.SampleRate = 44100
	}
	if opts.Format.Channels <= 0 {
		opts.Format.Channels = 2
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		now:    time.Now,
	}, nil
}

// OutputPathFor returns the default output location for a video.
func (p *Pipeline) OutputPathFor(videoPath string) string {
	dir := p.opts.OutputDir
	if dir == "" {
		dir = filepath.Dir(videoPath)
	}
	return filepath.Join(dir, textutil.DubbedName(videoPath, ".mp4"))
}

// run carries the state of one Run call.
type run struct {
	p       *Pipeline
	req     Request
	dir     *staging.RunDir
	logger  *slog.Logger
	result  *Result
	started time.Time
}

// Run dubs req.VideoPath. It returns a nil result on any fatal failure and
// publishes nothing in that case.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, runID)
	r := &run{
		p:       p,
		req:     req,
		logger:  logging.WithContext(ctx, p.logger),
		result:  &Result{RunID: runID},
		started: p.now(),
	}
	result, err := r.execute(ctx)
	if err != nil {
		r.notifyFailure(ctx, err)
		return nil, err
	}
	r.notifySuccess(ctx)
	return result, nil
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	p := r.p
	req := r.req
	if strings.TrimSpace(req.VideoPath) == "" {
		return nil, &RunError{Stage: StageExtracting, Err: services.Wrap(services.ErrValidation, string(StageExtracting), "request", "video path is required", nil)}
	}
	if strings.TrimSpace(req.OutputLanguage) == "" {
		return nil, &RunError{Stage: StageExtracting, Err: services.Wrap(services.ErrValidation, string(StageExtracting), "request", "output language is required", nil)}
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return nil, &RunError{Stage: StageExtracting, Err: services.Wrap(services.ErrNotFound, string(StageExtracting), "stat video", req.VideoPath, err)}
	}
	outputPath := req.OutputPath
	if strings.TrimSpace(outputPath) == "" {
		outputPath = p.OutputPathFor(req.VideoPath)
	}

	unlock, err := lockOutput(outputPath)
	if err != nil {
		return nil, &RunError{Stage: StageExtracting, Err: err}
	}
	defer unlock()

	if p.opts.StaleAfter > 0 {
		staging.CleanStale(ctx, p.opts.WorkDir, p.opts.StaleAfter, p.logger)
	}
	dir, err := staging.Create(p.opts.WorkDir, r.result.RunID)
	if err != nil {
		return nil, &RunError{Stage: StageExtracting, Err: services.Wrap(services.ErrConfiguration, string(StageExtracting), "work directory", "", err)}
	}
	r.dir = dir
	defer r.cleanup()

	r.logger.Info("dubbing run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("video", req.VideoPath),
		logging.String("output", outputPath),
		logging.String("input_language", req.InputLanguage),
		logging.String("output_language", req.OutputLanguage),
		logging.String("work_dir", dir.Path),
	)
	p.deps.Sink.Log(fmt.Sprintf("Starting dub of %s (%s → %s)", filepath.Base(req.VideoPath), displayLanguage(req.InputLanguage), req.OutputLanguage))

	audioPath := r.extract(ctx)

	scr, stemPath, err := r.separateAndAnalyze(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	r.result.Script = scr
	r.stage(StageScriptReady)
	p.deps.Sink.Log(fmt.Sprintf("Script ready: %d segments, %d speakers", len(scr.Segments), len(scr.Speakers())))

	assignment := p.deps.Assigner.Assign(scr)
	r.result.Assignment = assignment
	for _, entry := range assignment.Entries() {
		p.deps.Sink.Log(fmt.Sprintf("Voice for %s (%s): %s", entry.Speaker, entry.CharacterType, entry.Voice))
	}

	clips, err := r.synthesize(ctx, scr, assignment)
	if err != nil {
		return nil, err
	}

	mixPath, err := r.composite(ctx, scr, stemPath, clips)
	if err != nil {
		return nil, err
	}

	finalPath, err := r.mux(ctx, mixPath, outputPath)
	if err != nil {
		return nil, err
	}
	r.result.OutputPath = finalPath
	if p.opts.SaveAudio {
		r.saveAudio(ctx, mixPath, finalPath)
	}

	r.publish(ctx, finalPath)

	r.stage(StageDone)
	r.result.Elapsed = p.now().Sub(r.started)
	p.deps.Sink.Log(fmt.Sprintf("Dubbing complete: %s", finalPath))
	r.logger.Info("dubbing run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", finalPath),
		logging.String("published", r.result.PublishedURI),
		logging.Int("placed", r.result.Placed),
		logging.Int("skipped", r.result.Skipped),
		logging.Int("warnings", len(r.result.Warnings)),
		logging.Duration("elapsed", r.result.Elapsed),
	)
	return r.result, nil
}

func (r *run) extract(ctx context.Context) string {
	r.stage(StageExtracting)
	r.p.deps.Sink.Log("Extracting audio track")
	dest := r.dir.Join("audio.wav")
	format := r.p.opts.Format
	stageCtx := services.WithStage(ctx, string(StageExtracting))
	if err := r.p.deps.Extractor.ExtractAudio(stageCtx, r.req.VideoPath, dest, format.SampleRate, format.Channels); err != nil {
		r.warn(stageCtx, StageExtracting, -1, "Audio extraction failed; the background will be silent", err,
			"check that the video has an audio stream and ffmpeg is installed")
		return ""
	}
	return dest
}

// separateAndAnalyze runs separation and analysis in parallel. An analysis
// failure cancels separation.
func (r *run) separateAndAnalyze(ctx context.Context, audioPath string) (*script.Script, string, error) {
	p := r.p
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)

	var (
		stemPath string
		sepErr   error
		sepSkip  string
		scr      *script.Script
	)

	g.Go(func() error {
		switch {
		case p.deps.Separator == nil:
			sepSkip = "Background separation disabled; using a silent background"
			return nil
		case audioPath == "":
			sepSkip = "No extracted audio to separate; using a silent background"
			return nil
		}
		sctx := services.WithStage(gctx, string(StageSeparating))
		r.stage(StageSeparating)
		p.deps.Sink.Log("Separating background from vocals")
		stemPath, sepErr = p.deps.Separator.Separate(sctx, audioPath, r.dir.Join("separated"))
		return nil
	})

	g.Go(func() error {
		actx := services.WithStage(gctx, string(StageAnalyzing))
		r.stage(StageAnalyzing)
		p.deps.Sink.Log("Analyzing video dialogue")
		opts := p.opts.Analysis
		opts.InputLanguage = r.req.InputLanguage
		opts.OutputLanguage = r.req.OutputLanguage
		result, err := p.deps.Analyzer.Analyze(actx, r.req.VideoPath, opts)
		if err != nil {
			return err
		}
		scr = result
		return nil
	})

	if err := g.Wait(); err != nil {
		p.deps.Sink.Log(fmt.Sprintf("Script analysis failed: %v", err))
		logging.ErrorWithContext(logging.WithContext(services.WithStage(ctx, string(StageAnalyzing)), p.logger),
			"script analysis failed", "analysis_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, analysisHint(err)),
		)
		return nil, "", &RunError{Stage: StageAnalyzing, Err: err}
	}

	switch {
	case sepSkip != "":
		p.deps.Sink.Log(sepSkip)
	case sepErr != nil:
		stemPath = ""
		r.warn(services.WithStage(ctx, string(StageSeparating)), StageSeparating, -1,
			"Background separation failed; using a silent background", sepErr,
			"check the demucs installation and separation.command")
	default:
		p.deps.Sink.Log("Background separated")
	}
	return scr, stemPath, nil
}

func (r *run) synthesize(ctx context.Context, scr *script.Script, assignment voices.Assignment) ([]timeline.Clip, error) {
	r.stage(StageSynthesizing)
	total := len(scr.Segments)
	clips := make([]timeline.Clip, 0, total)
	for i, seg := range scr.Segments {
		if err := ctx.Err(); err != nil {
			return nil, &RunError{Stage: StageSynthesizing, Err: err}
		}
		segCtx := services.WithSegment(services.WithStage(ctx, string(StageSynthesizing)), i)
		path, ok := r.p.deps.Synth.Synthesize(segCtx, tts.Job{
			Index:      i,
			Total:      total,
			Segment:    seg,
			Voice:      assignment.Voice(seg.SpeakerLabel),
			Language:   r.req.OutputLanguage,
			OutputPath: r.dir.Join("segments", fmt.Sprintf("segment_%04d.wav", i)),
		})
		if !ok {
			r.result.Skipped++
			r.result.Warnings = append(r.result.Warnings, Warning{
				Stage:   StageSynthesizing,
				Segment: i,
				Message: fmt.Sprintf("segment %d/%d produced no audio and will be silent", i+1, total),
			})
			continue
		}
		clips = append(clips, timeline.Clip{
			Index:        i,
			Path:         path,
			StartMillis:  seg.StartMillis(),
			TargetMillis: seg.DurationMillis(),
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, &RunError{Stage: StageSynthesizing, Err: err}
	}
	r.p.deps.Sink.Log(fmt.Sprintf("Synthesized %d of %d segments", len(clips), total))
	return clips, nil
}

func (r *run) composite(ctx context.Context, scr *script.Script, stemPath string, clips []timeline.Clip) (string, error) {
	r.stage(StageCompositing)
	stageCtx := services.WithStage(ctx, string(StageCompositing))
	r.p.deps.Sink.Log("Compositing dub track")

	durationMillis := 0
	if r.p.deps.Prober != nil {
		d, err := r.p.deps.Prober.Duration(stageCtx, r.req.VideoPath)
		if err != nil {
			r.warn(stageCtx, StageCompositing, -1, "Could not read the video duration; using the script length", err,
				"check ffprobe")
		} else {
			durationMillis = int(d.Milliseconds())
		}
	}
	if durationMillis <= 0 {
		durationMillis = int(math.Ceil(scr.EndTime() * 1000))
	}

	summary, err := r.p.deps.Compositor.Compose(stageCtx, timeline.Plan{
		DurationMillis: durationMillis,
		BackgroundPath: stemPath,
		Clips:          clips,
		OutputPath:     r.dir.Join("final_audio.wav"),
		WorkDir:        r.dir.Path,
	})
	if err != nil {
		return "", &RunError{Stage: StageCompositing, Err: err}
	}
	r.result.Placed = summary.Placed
	r.result.Stretched = summary.Stretched
	r.result.Skipped += summary.Skipped
	for _, msg := range summary.Warnings {
		r.result.Warnings = append(r.result.Warnings, Warning{Stage: StageCompositing, Segment: -1, Message: msg})
	}
	return summary.Path, nil
}

func (r *run) mux(ctx context.Context, mixPath, outputPath string) (string, error) {
	r.stage(StageMuxing)
	stageCtx := services.WithStage(ctx, string(StageMuxing))
	r.p.deps.Sink.Log("Muxing dubbed audio into video")
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", &RunError{Stage: StageMuxing, Err: services.Wrap(services.ErrConfiguration, string(StageMuxing), "create output directory", filepath.Dir(outputPath), err)}
	}
	finalPath, err := r.p.deps.Muxer.Mux(stageCtx, ffmpeg.MuxRequest{
		VideoPath:  r.req.VideoPath,
		AudioPath:  mixPath,
		OutputPath: outputPath,
	})
	if err != nil {
		r.p.deps.Sink.Log(fmt.Sprintf("Muxing failed: %v", err))
		logging.ErrorWithContext(logging.WithContext(stageCtx, r.p.logger), "mux failed", "mux_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ffmpeg codecs in [media]"),
		)
		return "", &RunError{Stage: StageMuxing, Err: err}
	}
	return finalPath, nil
}

// saveAudio keeps a copy of the mix beside the video. The run directory is
// removed afterwards and may live on another filesystem.
func (r *run) saveAudio(ctx context.Context, mixPath, finalPath string) {
	dest := strings.TrimSuffix(finalPath, filepath.Ext(finalPath)) + ".wav"
	if err := fileutil.CopyFileVerified(mixPath, dest); err != nil {
		r.warn(services.WithStage(ctx, string(StageMuxing)), StageMuxing, -1, "Could not save the dubbed audio track", err,
			"check free space in the output directory")
		return
	}
	r.result.AudioPath = dest
	r.p.deps.Sink.Log(fmt.Sprintf("Dubbed audio saved to %s", dest))
}

func (r *run) publish(ctx context.Context, finalPath string) {
	if r.p.deps.Publisher == nil {
		return
	}
	r.stage(StagePublishing)
	stageCtx := services.WithStage(ctx, string(StagePublishing))
	r.p.deps.Sink.Log("Publishing dubbed video")
	uri, err := r.p.deps.Publisher.Publish(stageCtx, finalPath)
	if err != nil {
		r.warn(stageCtx, StagePublishing, -1, "Publishing failed; the dub is only available locally", err,
			"check the [storage] endpoint and credentials")
		return
	}
	r.result.PublishedURI = uri
	r.p.deps.Sink.Log(fmt.Sprintf("Published to %s", uri))
}

func (r *run) warn(ctx context.Context, stage Stage, segment int, msg string, err error, hint string) {
	r.p.deps.Sink.Log(msg)
	r.result.Warnings = append(r.result.Warnings, Warning{Stage: stage, Segment: segment, Message: fmt.Sprintf("%s: %v", msg, err)})
	logging.WarnWithContext(logging.WithContext(ctx, r.p.logger), msg, string(stage)+"_degraded",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
	)
}

func (r *run) stage(stage Stage) {
	r.logger.Debug("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String(logging.FieldStage, string(stage)),
	)
}

func (r *run) cleanup() {
	if r.dir == nil {
		return
	}
	if r.p.opts.KeepWorkDir {
		if err := r.dir.Release(); err != nil {
			r.logger.Debug("release work directory", logging.Error(err))
		}
		r.logger.Info("work directory kept", logging.String("path", r.dir.Path))
		return
	}
	if err := r.dir.Remove(); err != nil {
		logging.WarnWithContext(r.logger, "failed to remove work directory", "work_dir_cleanup_failed",
			logging.String("path", r.dir.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
	}
}

func (r *run) notifySuccess(ctx context.Context) {
	payload := notifications.Payload{
		"video":     filepath.Base(r.req.VideoPath),
		"language":  r.req.OutputLanguage,
		"output":    r.result.OutputPath,
		"published": r.result.PublishedURI,
		"skipped":   r.result.Skipped,
		"duration":  r.result.Elapsed,
	}
	if err := r.p.deps.Notifier.Publish(ctx, notifications.EventRunCompleted, payload); err != nil {
		r.logger.Debug("completion notification failed", logging.Error(err))
	}
}

func (r *run) notifyFailure(ctx context.Context, runErr error) {
	payload := notifications.Payload{
		"video": filepath.Base(r.req.VideoPath),
		"stage": string(FailedStage(runErr)),
		"error": runErr,
	}
	// The run context may already be cancelled.
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := r.p.deps.Notifier.Publish(notifyCtx, notifications.EventRunFailed, payload); err != nil {
		r.logger.Debug("failure notification failed", logging.Error(err))
	}
}

// lockOutput refuses to let two runs write the same output file.
func lockOutput(outputPath string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(StageExtracting), "create output directory", filepath.Dir(outputPath), err)
	}
	lockPath := outputPath + ".lock"
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(StageExtracting), "lock output", lockPath, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, string(StageExtracting), "lock output", "another run is already writing "+outputPath, nil)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}

func analysisHint(err error) string {
	switch {
	case errors.Is(err, services.ErrAuthentication):
		return "check gemini.api_key or the Vertex AI credentials"
	case errors.Is(err, services.ErrValidation):
		return "the model returned an unusable script; retry or adjust analysis.prompt_file"
	case errors.Is(err, services.ErrTimeout):
		return "the upload never became ready; raise gemini.max_wait_minutes"
	default:
		return "check network access to the model service"
	}
}

func displayLanguage(language string) string {
	if strings.TrimSpace(language) == "" {
		return "auto"
	}
	return language
}
