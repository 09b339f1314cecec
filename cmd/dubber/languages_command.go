package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubber/internal/language"
)

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "languages",
		Short:       "List supported dubbing languages",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			supported := language.Supported()
			rows := make([][]string, 0, len(supported))
			for _, lang := range supported {
				rows = append(rows, []string{lang.Name, lang.Code, lang.Native})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Language", "Code", "Native"}, rows, nil))
			return nil
		},
	}
}
