package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dubber/internal/staging"
)

func newWorkCommand(ctx *commandContext) *cobra.Command {
	workCmd := &cobra.Command{
		Use:   "work",
		Short: "Manage run directories",
	}

	workCmd.AddCommand(newWorkListCommand(ctx))
	workCmd.AddCommand(newWorkCleanCommand(ctx))

	return workCmd
}

func newWorkListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List run directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			workDir := strings.TrimSpace(cfg.Paths.WorkDir)

			dirs, err := staging.ListDirectories(workDir)
			if err != nil {
				return fmt.Errorf("list run directories: %w", err)
			}

			var totalSize int64
			for _, dir := range dirs {
				totalSize += dir.Size
			}
			if asJSON {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				return writeJSON(cmd, map[string]any{
					"work_dir":         workDir,
					"directories":      dirs,
					"total_size_bytes": totalSize,
				})
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No run directories found")
				return nil
			}

			fmt.Fprintf(out, "Work directory: %s\n\n", workDir)
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				age := time.Since(dir.ModTime).Truncate(time.Minute)
				state := "idle"
				if dir.Active {
					state = "active"
				}
				rows = append(rows, []string{strings.TrimPrefix(dir.Name, staging.RunPrefix), state, formatAge(age), formatBytes(dir.Size)})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Run", "State", "Age", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), formatBytes(totalSize))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newWorkCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove idle run directories",
		Long: `Remove run directories left behind by interrupted or --keep-work-dir runs.

By default only directories idle for longer than --older-than are removed.
Use --all to remove every idle directory. Directories locked by a running
dub are always skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			maxAge := olderThan
			if cleanAll {
				maxAge = 0
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.WorkDir, maxAge, logger)
			return printCleanResult(cmd, result)
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Minimum idle age of directories to remove")
	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all idle run directories regardless of age")
	return cmd
}

func printCleanResult(cmd *cobra.Command, result staging.CleanStaleResult) error {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No run directories to clean")
	} else {
		fmt.Fprintf(out, "Removed %d run directories\n", len(result.Removed))
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped %d active run directories\n", len(result.Skipped))
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d run directories could not be removed", len(result.Errors))
	}
	return nil
}

func formatAge(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
