package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dubber/internal/config"
	"dubber/internal/dubbing"
	"dubber/internal/script"
	"dubber/internal/services"
	"dubber/internal/voices"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var inputLanguage, outputLanguage, outPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <video>",
		Short: "Produce the dialogue script for a video without dubbing it",
		Long: `Upload the video to the analysis model and print the dialogue script it
returns: timing, speaker, delivery and the translated line for every
segment. Use --out to keep the script for 'dubber voices assign' or
'dubber prompt segment'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input, output, err := resolveLanguages(inputLanguage, outputLanguage, cfg.Languages.Input, cfg.Languages.Output)
			if err != nil {
				return err
			}
			if err := cfg.ValidateRemote(); err != nil {
				return services.Wrap(services.ErrConfiguration, "", "credentials", "", err)
			}
			videoPath, err := config.ExpandPath(args[0])
			if err != nil {
				return services.Wrap(services.ErrValidation, "", "video path", args[0], err)
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			analyzer, opts, err := dubbing.BuildAnalyzer(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			opts.InputLanguage = input
			opts.OutputLanguage = output
			fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %s with %s...\n", videoPath, opts.Model)
			scr, err := analyzer.Analyze(cmd.Context(), videoPath, opts)
			if err != nil {
				return err
			}

			if strings.TrimSpace(outPath) != "" {
				if err := writeScriptFile(outPath, scr); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Script written to %s\n", outPath)
			}
			if asJSON {
				return writeJSON(cmd, scr)
			}
			out := cmd.OutOrStdout()
			printScript(out, scr, output)
			printAssignment(out, voices.NewFromConfig(cfg.Voices).Assign(scr))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputLanguage, "input-language", "i", "", "Spoken language of the video (default languages.input)")
	cmd.Flags().StringVarP(&outputLanguage, "output-language", "l", "", "Translation language (default languages.output)")
	cmd.Flags().StringVar(&outPath, "out", "", "Also write the script JSON to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the script as JSON")
	return cmd
}

func writeScriptFile(path string, scr *script.Script) error {
	data, err := json.MarshalIndent(scr, "", "  ")
	if err != nil {
		return fmt.Errorf("encode script: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

// readScriptFile loads a saved script. The same parser as the model
// response is used, so fenced or unfenced JSON both work.
func readScriptFile(path, outputLanguage string) (*script.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "", "read script", path, err)
	}
	return script.Parse(string(data), outputLanguage)
}

func printScript(out io.Writer, scr *script.Script, language string) {
	rows := make([][]string, 0, len(scr.Segments))
	for i, seg := range scr.Segments {
		text, _ := seg.Translation(language)
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatSeconds(seg.StartTime),
			formatSeconds(seg.EndTime),
			seg.SpeakerLabel,
			string(seg.CharacterType),
			string(seg.Emotion),
			truncate(text, 60),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Start", "End", "Speaker", "Type", "Emotion", language},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight},
	))
}

func printAssignment(out io.Writer, assignment voices.Assignment) {
	entries := assignment.Entries()
	if len(entries) == 0 {
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Speaker, string(e.CharacterType), e.Voice})
	}
	fmt.Fprint(out, renderTable([]string{"Speaker", "Type", "Voice"}, rows, nil))
}

func truncate(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}
