package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubber/internal/preflight"
	"dubber/internal/process"
	"dubber/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, credentials and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n\n", ctx.configPath)

			failures := 0
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg, process.NewExecRunner())
			depRows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				detail := s.Path
				if !s.Available {
					state = "missing"
					detail = s.Detail
					if s.Optional {
						state = "missing (optional)"
					} else {
						failures++
					}
				}
				depRows = append(depRows, []string{s.Name, state, detail, s.Description})
			}
			fmt.Fprint(out, renderTable([]string{"Tool", "Status", "Detail", "Purpose"}, depRows, nil))

			results := preflight.RunAll(cmd.Context(), cfg)
			checkRows := make([][]string, 0, len(results))
			for _, r := range results {
				state := "ok"
				if !r.Passed {
					state = "failed"
					failures++
				}
				checkRows = append(checkRows, []string{r.Name, state, r.Detail})
			}
			fmt.Fprint(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))

			fmt.Fprintf(out, "Separation: %s  Publishing: %s  Redis progress: %s  Notifications: %s\n",
				yesNo(cfg.Separation.Enabled),
				yesNo(cfg.Storage.Enabled),
				yesNo(cfg.Progress.RedisAddr != ""),
				yesNo(cfg.Notifications.NtfyTopic != ""),
			)
			if failures > 0 {
				return services.Wrap(services.ErrConfiguration, "", "doctor", fmt.Sprintf("%d checks failed", failures), nil)
			}
			fmt.Fprintln(out, "All required checks passed")
			return nil
		},
	}
}
