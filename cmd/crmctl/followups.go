package main

import (
	"fmt"

	"github.com/phbpx/minicrm/views"
	"github.com/spf13/cobra"
)

func (a *app) newFollowUpsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "followups",
		Aliases: []string{"tasks"},
		Short:   "Work the pending follow-up queue",
	}

	cmd.AddCommand(
		a.newFollowUpsListCmd(),
		a.newFollowUpsCompleteCmd(),
	)

	return cmd
}

func (a *app) newFollowUpsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show open follow-ups across all leads, earliest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			leads, err := a.client().ListLeads(ctx)
			if err != nil {
				return a.fail("listing leads", err)
			}

			tasks := views.PendingFollowUps(leads)
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			renderQueue(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
}

func (a *app) newFollowUpsCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <lead-id> <follow-up-id>",
		Short: "Mark a follow-up as done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			c := a.client()

			leads, err := c.ListLeads(ctx)
			if err != nil {
				return a.fail("listing leads", err)
			}

			queue := views.NewFollowUpQueue(leads, c, a.log)
			if err := queue.Complete(ctx, args[0], args[1]); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Something went wrong.")
				return err
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), queue.Tasks())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Follow-up completed.")
			renderQueue(cmd.OutOrStdout(), queue.Tasks())
			return nil
		},
	}
}
