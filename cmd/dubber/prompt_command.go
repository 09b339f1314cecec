package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dubber/internal/script"
	"dubber/internal/services"
	"dubber/internal/tts"
)

func newPromptCommand(ctx *commandContext) *cobra.Command {
	var inputLanguage, outputLanguage string

	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the analysis prompt sent with the video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input, output, err := resolveLanguages(inputLanguage, outputLanguage, cfg.Languages.Input, cfg.Languages.Output)
			if err != nil {
				return err
			}
			template, err := cfg.AnalysisPrompt()
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "", "analysis prompt", "", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), script.RenderPrompt(template, input, output))
			return nil
		},
	}
	promptCmd.Flags().StringVarP(&inputLanguage, "input-language", "i", "", "Spoken language of the video (default languages.input)")
	promptCmd.Flags().StringVarP(&outputLanguage, "output-language", "l", "", "Language to dub into (default languages.output)")

	promptCmd.AddCommand(newPromptSegmentCommand(ctx))
	return promptCmd
}

func newPromptSegmentCommand(ctx *commandContext) *cobra.Command {
	var outputLanguage string

	cmd := &cobra.Command{
		Use:   "segment <script.json> <number>",
		Short: "Print the speech prompt for one segment of a saved script",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			language := outputLanguage
			if language == "" {
				language = cfg.Languages.Output
			}
			scr, err := readScriptFile(args[0], language)
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 || n > len(scr.Segments) {
				return services.Wrap(services.ErrValidation, "", "segment", fmt.Sprintf("want a number between 1 and %d", len(scr.Segments)), nil)
			}
			seg := scr.Segments[n-1]
			text, ok := seg.Translation(language)
			if !ok {
				return services.Wrap(services.ErrValidation, "", "segment", fmt.Sprintf("segment %d has no %s translation", n, language), nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tts.BuildPrompt(tts.NewPromptInput(seg, language, text)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputLanguage, "output-language", "l", "", "Translation language of the script (default languages.output)")
	return cmd
}
