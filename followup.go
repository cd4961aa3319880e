package minicrm

import (
	"fmt"
	"strings"
	"time"
)

// FollowUp is a dated outreach task owned by a lead.
type FollowUp struct {
	ID          string    `json:"id" bson:"id"`
	Date        time.Time `json:"date" bson:"date"`
	Notes       string    `json:"notes" bson:"notes"`
	IsCompleted bool      `json:"isCompleted" bson:"isCompleted"`
}

type FollowUpInput struct {
	Date  time.Time
	Notes string
}

// FollowUp builds the pending follow-up appended for in.
func (in FollowUpInput) FollowUp(id string) FollowUp {
	return FollowUp{
		ID:    id,
		Date:  in.Date,
		Notes: in.Notes,
	}
}

// LeadPatch is the body of an update request: any lead field plus an
// optional follow-up to schedule in the same round trip.
type LeadPatch struct {
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Company       *string `json:"company,omitempty"`
	AssignedTo    *string `json:"assignedTo,omitempty"`
	Status        *Status `json:"status,omitempty"`
	FollowUpDate  string  `json:"followUpDate,omitempty"`
	FollowUpNotes string  `json:"followUpNotes,omitempty"`
}

// Fields returns the scalar part of the patch.
func (p LeadPatch) Fields() LeadUpdate {
	return LeadUpdate{
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		Company:    p.Company,
		AssignedTo: p.AssignedTo,
		Status:     p.Status,
	}
}

// FollowUp returns the follow-up requested by the patch. A follow-up is
// scheduled only when both the date and the notes are non-empty; if either
// is missing ok is false and the other one is ignored.
func (p LeadPatch) FollowUp() (in FollowUpInput, ok bool, err error) {
	date := strings.TrimSpace(p.FollowUpDate)
	if date == "" || p.FollowUpNotes == "" {
		return FollowUpInput{}, false, nil
	}

	t, err := ParseFollowUpDate(date)
	if err != nil {
		return FollowUpInput{}, false, err
	}

	return FollowUpInput{Date: t, Notes: p.FollowUpNotes}, true, nil
}

var followUpDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseFollowUpDate accepts an RFC 3339 timestamp, a datetime-local value or
// a plain calendar date. Values without a zone are read as UTC.
func ParseFollowUpDate(s string) (time.Time, error) {
	for _, layout := range followUpDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: followUpDate %q is not a valid date", ErrInvalidLead, s)
}
