package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dubber/internal/voices"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "Show voice pools and cast saved scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			pools := []struct {
				name  string
				names []string
			}{
				{"MALE", cfg.Voices.Male},
				{"FEMALE", cfg.Voices.Female},
				{"CHILD", cfg.Voices.Child},
				{"ELDERLY", cfg.Voices.Elderly},
			}
			rows := make([][]string, 0, len(pools))
			for _, p := range pools {
				list := strings.Join(p.names, ", ")
				if list == "" {
					list = "(fallback)"
				}
				rows = append(rows, []string{p.name, list})
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderTable([]string{"Type", "Voices"}, rows, nil))
			fmt.Fprintf(out, "Fallback voice: %s\n", cfg.Voices.Fallback)
			return nil
		},
	}
	voicesCmd.AddCommand(newVoicesAssignCommand(ctx))
	return voicesCmd
}

func newVoicesAssignCommand(ctx *commandContext) *cobra.Command {
	var outputLanguage string

	cmd := &cobra.Command{
		Use:   "assign <script.json>",
		Short: "Cast the speakers of a saved script",
		Args:  cobra.ExactArgs(1),
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
			assignment := voices.NewFromConfig(cfg.Voices).Assign(scr)
			printAssignment(cmd.OutOrStdout(), assignment)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputLanguage, "output-language", "l", "", "Translation language of the script (default languages.output)")
	return cmd
}
