// Package views derives the client-side projections of the lead collection:
// the roster, the pending follow-up queue and the analytics summary. Each
// view works on a freshly fetched copy of the whole collection.
package views

import (
	"sort"

	"github.com/phbpx/minicrm"
)

// Roster orders leads newest first.
func Roster(leads []minicrm.Lead) []minicrm.Lead {
	roster := append([]minicrm.Lead{}, leads...)
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].CreatedAt.After(roster[j].CreatedAt)
	})
	return roster
}

// EditForm holds the values of the lead edit form. The whole form is
// submitted on save, together with the follow-up scheduling fields.
type EditForm struct {
	Name          string
	Email         string
	Phone         string
	Company       string
	AssignedTo    string
	Status        minicrm.Status
	FollowUpDate  string
	FollowUpNotes string
}

// EditFormFor pre-fills the form from l with empty follow-up fields.
func EditFormFor(l minicrm.Lead) EditForm {
	return EditForm{
		Name:       l.Name,
		Email:      l.Email,
		Phone:      l.Phone,
		Company:    l.Company,
		AssignedTo: l.AssignedTo,
		Status:     l.Status,
	}
}

// Patch builds the update payload for the form.
func (f EditForm) Patch() minicrm.LeadPatch {
	status := f.Status
	return minicrm.LeadPatch{
		Name:          &f.Name,
		Email:         &f.Email,
		Phone:         &f.Phone,
		Company:       &f.Company,
		AssignedTo:    &f.AssignedTo,
		Status:        &status,
		FollowUpDate:  f.FollowUpDate,
		FollowUpNotes: f.FollowUpNotes,
	}
}
