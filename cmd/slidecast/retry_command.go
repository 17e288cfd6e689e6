package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"slidecast/internal/api"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [run-id...]",
		Short: "Retry failed runs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(cctx context.Context, svc *api.QueueService) error {
				retried, err := svc.Retry(cctx, args...)
				if err != nil {
					return err
				}
				if retried == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No failed runs to retry")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d failed runs\n", retried)
				return nil
			})
		},
	}
}
