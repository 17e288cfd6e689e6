package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slidecast/internal/api"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Display one run with its per-slide results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(cctx context.Context, svc *api.QueueService) error {
				detail, err := svc.Describe(cctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, detail)
				}
				renderRunDetail(cmd, detail)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func renderRunDetail(cmd *cobra.Command, detail api.RunDetail) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Run "+detail.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Deck", statusInfo, detail.DeckTitle, colorize))
	fmt.Fprintln(out, renderStatusLine("Source", statusInfo, detail.SourcePath, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(detail.Status), detail.Status, colorize))
	if detail.ProgressStage != "" {
		progress := fmt.Sprintf("%s (%.0f%%)", detail.ProgressStage, detail.ProgressPercent)
		if detail.ProgressMessage != "" {
			progress += " " + detail.ProgressMessage
		}
		fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, progress, colorize))
	}
	if detail.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, detail.ErrorMessage, colorize))
	}
	if detail.OutputDir != "" {
		fmt.Fprintln(out, renderStatusLine("Output", statusOK, detail.OutputDir, colorize))
	}

	if len(detail.Slides) == 0 {
		return
	}
	fmt.Fprintln(out)
	rows := make([][]string, 0, len(detail.Slides))
	for _, slide := range detail.Slides {
		rows = append(rows, []string{
			strconv.Itoa(slide.Ordinal),
			slide.Status,
			truncateCell(slide.Narration, 72),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Slide", "Status", "Narration"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	))
}

func runStatusKind(status string) statusKind {
	switch strings.ToLower(status) {
	case "completed":
		return statusOK
	case "failed":
		return statusError
	case "queued":
		return statusInfo
	default:
		return statusWarn
	}
}

func truncateCell(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
