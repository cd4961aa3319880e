package main

import (
	"time"

	"github.com/phbpx/minicrm/views"
	"github.com/spf13/cobra"
)

func (a *app) newAnalyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show conversion totals by agent and by month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			leads, err := a.client().ListLeads(ctx)
			if err != nil {
				return a.fail("listing leads", err)
			}

			summary := views.Summarize(leads, time.Local)
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			renderAnalytics(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}
