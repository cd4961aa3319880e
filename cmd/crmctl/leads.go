package main

import (
	"fmt"

	"github.com/phbpx/minicrm"
	"github.com/phbpx/minicrm/views"
	"github.com/spf13/cobra"
)

func (a *app) newLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List, inspect, create and edit leads",
	}

	cmd.AddCommand(
		a.newLeadsListCmd(),
		a.newLeadsGetCmd(),
		a.newLeadsCreateCmd(),
		a.newLeadsUpdateCmd(),
	)

	return cmd
}

func (a *app) newLeadsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every lead, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			leads, err := a.client().ListLeads(ctx)
			if err != nil {
				return a.fail("listing leads", err)
			}

			roster := views.Roster(leads)
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), roster)
			}
			renderRoster(cmd.OutOrStdout(), roster)
			return nil
		},
	}
}

func (a *app) newLeadsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <lead-id>",
		Short: "Show one lead and its follow-ups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			lead, err := a.client().GetLead(ctx, args[0])
			if err != nil {
				return a.fail("fetching lead", err)
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), lead)
			}
			renderLead(cmd.OutOrStdout(), lead)
			return nil
		},
	}
}

func (a *app) newLeadsCreateCmd() *cobra.Command {
	var nl minicrm.NewLead

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a lead with status New",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := nl.Validate(); err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			lead, err := a.client().CreateLead(ctx, nl)
			if err != nil {
				return a.fail("creating lead", err)
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), lead)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lead created: %s\n", lead.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&nl.Name, "name", "", "lead name")
	f.StringVar(&nl.Email, "email", "", "contact email")
	f.StringVar(&nl.Phone, "phone", "", "contact phone")
	f.StringVar(&nl.Company, "company", "", "company name")
	f.StringVar(&nl.AssignedTo, "assigned-to", "", "agent owning the lead")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("phone")

	return cmd
}

func (a *app) newLeadsUpdateCmd() *cobra.Command {
	var (
		form   views.EditForm
		status string
	)

	cmd := &cobra.Command{
		Use:   "update <lead-id>",
		Short: "Edit a lead and optionally schedule a follow-up",
		Long: `Edit a lead. Fields that are not given keep their current value.

A follow-up is only scheduled when both --follow-up-date and
--follow-up-notes are given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			c := a.client()

			current, err := c.GetLead(ctx, args[0])
			if err != nil {
				return a.fail("fetching lead", err)
			}

			edit := views.EditFormFor(current)
			flags := cmd.Flags()
			if flags.Changed("name") {
				edit.Name = form.Name
			}
			if flags.Changed("email") {
				edit.Email = form.Email
			}
			if flags.Changed("phone") {
				edit.Phone = form.Phone
			}
			if flags.Changed("company") {
				edit.Company = form.Company
			}
			if flags.Changed("assigned-to") {
				edit.AssignedTo = form.AssignedTo
			}
			if flags.Changed("status") {
				edit.Status = minicrm.Status(status)
				if !edit.Status.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
			}
			edit.FollowUpDate = form.FollowUpDate
			edit.FollowUpNotes = form.FollowUpNotes

			if (edit.FollowUpDate == "") != (edit.FollowUpNotes == "") {
				a.log.Warnw("update", "status", "follow-up not scheduled, both date and notes are required")
			}

			lead, err := c.UpdateLead(ctx, current.ID, edit.Patch())
			if err != nil {
				return a.fail("updating lead", err)
			}

			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), lead)
			}
			renderLead(cmd.OutOrStdout(), lead)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "lead name")
	f.StringVar(&form.Email, "email", "", "contact email")
	f.StringVar(&form.Phone, "phone", "", "contact phone")
	f.StringVar(&form.Company, "company", "", "company name")
	f.StringVar(&form.AssignedTo, "assigned-to", "", "agent owning the lead")
	f.StringVar(&status, "status", "", "New, Contacted, Converted or Lost")
	f.StringVar(&form.FollowUpDate, "follow-up-date", "", "follow-up date, e.g. 2024-05-01T10:00")
	f.StringVar(&form.FollowUpNotes, "follow-up-notes", "", "follow-up notes")

	return cmd
}
