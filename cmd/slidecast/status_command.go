package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"slidecast/internal/api"
	"slidecast/internal/daemonctl"
	"slidecast/internal/preflight"
	"slidecast/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, queue, and environment status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			running := daemonctl.IsRunning(cfg)
			checks := preflight.RunAll(cmd.Context(), cfg)

			return ctx.withService(cmd.Context(), func(cctx context.Context, svc *api.QueueService) error {
				stats, err := svc.Stats(cctx)
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, statusReport{
						DaemonRunning: running,
						QueueStats:    stringStats(stats),
						Checks:        checks,
					})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Slidecast Status", colorize) {
					fmt.Fprintln(out, line)
				}
				daemonKind := statusWarn
				daemonText := "stopped"
				if running {
					daemonKind = statusOK
					daemonText = "running"
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", daemonKind, daemonText, colorize))
				fmt.Fprintln(out, renderStatusLine("Inbox", statusInfo, cfg.Paths.InboxDir, colorize))
				fmt.Fprintln(out, renderStatusLine("Output", statusInfo, cfg.Paths.OutputDir, colorize))

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Environment", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, check := range checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(out, line)
				}
				rows := buildQueueStatsRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(out, statusIndent+"Queue is empty")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

type statusReport struct {
	DaemonRunning bool               `json:"daemon_running"`
	QueueStats    map[string]int     `json:"queue_stats"`
	Checks        []preflight.Result `json:"checks"`
}

func stringStats(stats map[queue.Status]int) map[string]int {
	converted := make(map[string]int, len(stats))
	for status, count := range stats {
		converted[string(status)] = count
	}
	return converted
}

func buildQueueStatsRows(stats map[queue.Status]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count, ok := stats[status]
		if !ok || count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
	}
	return rows
}
