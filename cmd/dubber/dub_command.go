package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dubber/internal/config"
	"dubber/internal/dubbing"
	"dubber/internal/logging"
	"dubber/internal/preflight"
	"dubber/internal/progress"
	"dubber/internal/services"
)

type dubOptions struct {
	inputLanguage  string
	outputLanguage string
	output         string
	keepWorkDir    bool
	saveAudio      bool
	noSeparation   bool
	noPublish      bool
	skipPreflight  bool
	json           bool
}

func newDubCommand(ctx *commandContext) *cobra.Command {
	var opts dubOptions

	cmd := &cobra.Command{
		Use:   "dub <video>",
		Short: "Dub a video into the output language",
		Long: `Dub a video end to end: extract its audio, separate the background,
analyze the dialogue, synthesize each line, mix the new track and mux it
back into a copy of the video.

Progress lines stream to stdout. With --json they go to stderr and stdout
carries only the run summary.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return runDub(cmd, cfg, logger, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.inputLanguage, "input-language", "i", "", "Spoken language of the video (default languages.input)")
	cmd.Flags().StringVarP(&opts.outputLanguage, "output-language", "l", "", "Language to dub into (default languages.output)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output video path (default <output_dir>/dubbed_<name>.mp4)")
	cmd.Flags().BoolVar(&opts.keepWorkDir, "keep-work-dir", false, "Keep the run directory with intermediate audio")
	cmd.Flags().BoolVar(&opts.saveAudio, "save-audio", false, "Also write the dubbed mix as a WAV next to the video")
	cmd.Flags().BoolVar(&opts.noSeparation, "no-separation", false, "Skip background separation and dub over silence")
	cmd.Flags().BoolVar(&opts.noPublish, "no-publish", false, "Do not upload the result even when [storage] is enabled")
	cmd.Flags().BoolVar(&opts.skipPreflight, "skip-preflight", false, "Skip directory and service readiness checks")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the run summary as JSON")
	return cmd
}

func runDub(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, video string, opts dubOptions) error {
	applyDubOverrides(cfg, opts)

	input, output, err := resolveLanguages(opts.inputLanguage, opts.outputLanguage, cfg.Languages.Input, cfg.Languages.Output)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRemote(); err != nil {
		return services.Wrap(services.ErrConfiguration, "", "credentials", "", err)
	}

	videoPath, err := config.ExpandPath(video)
	if err != nil {
		return services.Wrap(services.ErrValidation, "", "video path", video, err)
	}
	outputPath := ""
	if strings.TrimSpace(opts.output) != "" {
		if outputPath, err = config.ExpandPath(opts.output); err != nil {
			return services.Wrap(services.ErrValidation, "", "output path", opts.output, err)
		}
	}

	progressOut := cmd.OutOrStdout()
	if opts.json {
		progressOut = cmd.ErrOrStderr()
	}

	if !opts.skipPreflight {
		if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
			names := make([]string, 0, len(failed))
			for _, r := range failed {
				fmt.Fprintf(progressOut, "Preflight failed: %s: %s\n", r.Name, r.Detail)
				names = append(names, r.Name)
			}
			return services.Wrap(services.ErrConfiguration, "", "preflight", strings.Join(names, ", "), nil)
		}
	}

	runID := uuid.NewString()
	queue := progress.NewQueue(cfg.Progress.QueueSize)
	consumer, closeConsumer := progressConsumer(cmd.Context(), cfg, runID, progressOut, logger)
	defer closeConsumer()

	drained := make(chan error, 1)
	go func() {
		interval := time.Duration(cfg.Progress.DrainIntervalMS) * time.Millisecond
		drained <- queue.Drain(context.WithoutCancel(cmd.Context()), interval, consumer, func(err error) {
			logger.Debug("progress delivery failed", logging.Error(err))
		})
	}()
	finish := func() {
		queue.Close()
		<-drained
	}

	pipeline, err := dubbing.Build(cmd.Context(), cfg, queue, logger)
	if err != nil {
		finish()
		return err
	}
	result, runErr := pipeline.Run(cmd.Context(), dubbing.Request{
		RunID:          runID,
		VideoPath:      videoPath,
		OutputPath:     outputPath,
		InputLanguage:  input,
		OutputLanguage: output,
	})
	finish()
	if dropped := queue.Dropped(); dropped > 0 {
		logger.Debug("progress messages dropped", logging.Int64("count", int64(dropped)))
	}
	if runErr != nil {
		return runErr
	}

	if opts.json {
		return writeJSON(cmd, newDubSummary(result))
	}
	printDubResult(cmd.OutOrStdout(), result)
	return nil
}

func applyDubOverrides(cfg *config.Config, opts dubOptions) {
	if opts.keepWorkDir {
		cfg.Paths.KeepWorkDir = true
	}
	if opts.saveAudio {
		cfg.Paths.SaveAudio = true
	}
	if opts.noSeparation {
		cfg.Separation.Enabled = false
	}
	if opts.noPublish {
		cfg.Storage.Enabled = false
	}
}

// progressConsumer renders to out and, when configured, fans out to Redis.
// A Redis connection failure only loses the fan-out.
func progressConsumer(ctx context.Context, cfg *config.Config, runID string, out io.Writer, logger *slog.Logger) (progress.Consumer, func()) {
	console := progress.NewConsole(out)
	if cfg.Progress.RedisAddr == "" {
		return console, func() {}
	}
	pub, err := progress.NewRedisPublisher(progress.RedisOptions{
		Addr:     cfg.Progress.RedisAddr,
		Password: cfg.Progress.RedisPassword,
		DB:       cfg.Progress.RedisDB,
		Channel:  cfg.Progress.RedisChannel,
		RunID:    runID,
	})
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = pub.Ping(pingCtx)
		cancel()
		if err != nil {
			_ = pub.Close()
		}
	}
	if err != nil {
		logging.WarnWithContext(logger, "redis progress fan-out disabled", "progress_redis_unavailable",
			logging.String("addr", cfg.Progress.RedisAddr),
			logging.Error(err),
			logging.String(logging.FieldImpact, "progress only shown locally"),
		)
		return console, func() {}
	}
	return progress.Tee(console, pub), func() { _ = pub.Close() }
}

type dubSummary struct {
	RunID       string        `json:"run_id"`
	Output      string        `json:"output"`
	Audio       string        `json:"audio,omitempty"`
	Published   string        `json:"published,omitempty"`
	Segments    int           `json:"segments"`
	Placed      int           `json:"placed"`
	Stretched   int           `json:"stretched"`
	Skipped     int           `json:"skipped"`
	Voices      []voiceRow    `json:"voices"`
	Warnings    []warningJSON `json:"warnings"`
	ElapsedSecs float64       `json:"elapsed_seconds"`
}

type voiceRow struct {
	Speaker       string `json:"speaker"`
	CharacterType string `json:"character_type"`
	Voice         string `json:"voice"`
}

type warningJSON struct {
	Stage   string `json:"stage"`
	Segment int    `json:"segment,omitempty"`
	Message string `json:"message"`
}

func newDubSummary(res *dubbing.Result) dubSummary {
	summary := dubSummary{
		RunID:       res.RunID,
		Output:      res.OutputPath,
		Audio:       res.AudioPath,
		Published:   res.PublishedURI,
		Placed:      res.Placed,
		Stretched:   res.Stretched,
		Skipped:     res.Skipped,
		Voices:      []voiceRow{},
		Warnings:    []warningJSON{},
		ElapsedSecs: res.Elapsed.Seconds(),
	}
	if res.Script != nil {
		summary.Segments = len(res.Script.Segments)
	}
	for _, entry := range res.Assignment.Entries() {
		summary.Voices = append(summary.Voices, voiceRow{
			Speaker:       entry.Speaker,
			CharacterType: string(entry.CharacterType),
			Voice:         entry.Voice,
		})
	}
	for _, w := range res.Warnings {
		row := warningJSON{Stage: string(w.Stage), Message: w.Message}
		if w.Segment >= 0 {
			row.Segment = w.Segment + 1
		}
		summary.Warnings = append(summary.Warnings, row)
	}
	return summary
}

func printDubResult(out io.Writer, res *dubbing.Result) {
	fmt.Fprintln(out)
	rows := [][]string{
		{"Output", res.OutputPath},
	}
	if res.AudioPath != "" {
		rows = append(rows, []string{"Audio", res.AudioPath})
	}
	if res.PublishedURI != "" {
		rows = append(rows, []string{"Published", res.PublishedURI})
	}
	segments := 0
	if res.Script != nil {
		segments = len(res.Script.Segments)
	}
	rows = append(rows,
		[]string{"Segments", fmt.Sprintf("%d placed, %d skipped, %d of %d compressed", res.Placed, res.Skipped, res.Stretched, segments)},
		[]string{"Elapsed", res.Elapsed.Round(time.Second).String()},
		[]string{"Run", res.RunID},
	)
	fmt.Fprint(out, renderTable([]string{"Field", "Value"}, rows, nil))

	if entries := res.Assignment.Entries(); len(entries) > 0 {
		voiceRows := make([][]string, 0, len(entries))
		for _, e := range entries {
			voiceRows = append(voiceRows, []string{e.Speaker, string(e.CharacterType), e.Voice})
		}
		fmt.Fprint(out, renderTable([]string{"Speaker", "Type", "Voice"}, voiceRows, nil))
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintf(out, "%d warnings:\n", len(res.Warnings))
		for _, w := range res.Warnings {
			prefix := string(w.Stage)
			if w.Segment >= 0 {
				prefix += " segment " + strconv.Itoa(w.Segment+1)
			}
			fmt.Fprintf(out, "  %s: %s\n", prefix, w.Message)
		}
	}
}
