package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/phbpx/minicrm"
	"github.com/phbpx/minicrm/views"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	mutedStyle = lipgloss.NewStyle().Faint(true)
	tableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableStyle).
		Headers(headers...)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func openCount(l minicrm.Lead) int {
	n := 0
	for _, fu := range l.FollowUps {
		if !fu.IsCompleted {
			n++
		}
	}
	return n
}

func renderRoster(w io.Writer, leads []minicrm.Lead) {
	fmt.Fprintln(w, titleStyle.Render("Leads"))
	if len(leads) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No leads yet"))
		return
	}

	t := newTable("ID", "NAME", "EMAIL", "PHONE", "COMPANY", "ASSIGNED TO", "STATUS", "OPEN TASKS", "CREATED")
	for _, l := range leads {
		t.Row(
			l.ID,
			l.Name,
			l.Email,
			l.Phone,
			orNA(l.Company),
			orNA(l.AssignedTo),
			string(l.Status),
			fmt.Sprintf("%d/%d", openCount(l), len(l.FollowUps)),
			l.CreatedAt.Local().Format("Jan 2, 2006"),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderLead(w io.Writer, l minicrm.Lead) {
	fmt.Fprintln(w, titleStyle.Render(l.Name+" ("+string(l.Status)+")"))
	fmt.Fprintf(w, "ID:          %s\n", l.ID)
	fmt.Fprintf(w, "Email:       %s\n", l.Email)
	fmt.Fprintf(w, "Phone:       %s\n", l.Phone)
	fmt.Fprintf(w, "Company:     %s\n", orNA(l.Company))
	fmt.Fprintf(w, "Assigned to: %s\n", orNA(l.AssignedTo))
	fmt.Fprintf(w, "Created:     %s\n", l.CreatedAt.Local().Format("Jan 2, 2006 15:04"))

	if len(l.FollowUps) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No follow-ups scheduled"))
		return
	}

	t := newTable("FOLLOW-UP ID", "DUE", "NOTES", "DONE")
	for _, fu := range l.FollowUps {
		done := "no"
		if fu.IsCompleted {
			done = "yes"
		}
		t.Row(fu.ID, fu.Date.Format("Mon, Jan 2"), fu.Notes, done)
	}
	fmt.Fprintln(w, t.Render())
}

func renderQueue(w io.Writer, tasks []views.PendingFollowUp) {
	fmt.Fprintln(w, titleStyle.Render("Pending Follow-ups"))
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No pending follow-ups scheduled"))
		return
	}

	t := newTable("DUE", "LEAD", "COMPANY", "NOTES", "LEAD ID", "FOLLOW-UP ID")
	for _, task := range tasks {
		t.Row(
			task.Date.Format("Mon, Jan 2"),
			task.LeadName,
			orNA(task.LeadCompany),
			task.Notes,
			task.LeadID,
			task.ID,
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderAnalytics(w io.Writer, a views.Analytics) {
	fmt.Fprintln(w, titleStyle.Render("Analytics Dashboard"))

	totals := newTable("TOTAL LEADS", "CONVERTED", "CONVERSION RATE").
		Row(strconv.Itoa(a.TotalLeads), strconv.Itoa(a.ConvertedCount), strconv.Itoa(a.ConversionRate)+"%")
	fmt.Fprintln(w, totals.Render())

	agents := newTable("ASSIGNED TO", "LEADS")
	for _, name := range a.Agents() {
		agents.Row(name, strconv.Itoa(a.ByAgent[name]))
	}
	fmt.Fprintln(w, agents.Render())

	months := newTable("MONTH", "TOTAL", "CONVERTED", "RATE")
	for _, label := range a.Months() {
		m := a.ByMonth[label]
		months.Row(label, strconv.Itoa(m.Total), strconv.Itoa(m.Converted), strconv.Itoa(m.Rate())+"%")
	}
	fmt.Fprintln(w, months.Render())
}
