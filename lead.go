package minicrm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrFollowUpNotFound = errors.New("follow-up not found")
	ErrInvalidLead      = errors.New("invalid lead")
)

// Status is the sales-stage label of a lead.
type Status string

const (
	StatusNew       Status = "New"
	StatusContacted Status = "Contacted"
	StatusConverted Status = "Converted"
	StatusLost      Status = "Lost"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusConverted, StatusLost:
		return true
	}
	return false
}

type Lead struct {
	ID         string     `json:"id" bson:"_id"`
	Name       string     `json:"name" bson:"name"`
	Email      string     `json:"email" bson:"email"`
	Phone      string     `json:"phone" bson:"phone"`
	Company    string     `json:"company,omitempty" bson:"company,omitempty"`
	AssignedTo string     `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	Status     Status     `json:"status" bson:"status"`
	FollowUps  []FollowUp `json:"followUps" bson:"followUps"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	ModifiedAt time.Time  `json:"modifiedAt" bson:"modifiedAt"`
}

// NewLead carries the caller supplied fields of a lead being created.
// It has no status field: new leads always start as StatusNew.
type NewLead struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	AssignedTo string `json:"assignedTo"`
}

func (nl NewLead) Validate() error {
	switch {
	case strings.TrimSpace(nl.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidLead)
	case strings.TrimSpace(nl.Email) == "":
		return fmt.Errorf("%w: email is required", ErrInvalidLead)
	case strings.TrimSpace(nl.Phone) == "":
		return fmt.Errorf("%w: phone is required", ErrInvalidLead)
	}
	return nil
}

// Lead builds the record persisted for nl.
func (nl NewLead) Lead(id string, now time.Time) Lead {
	return Lead{
		ID:         id,
		Name:       nl.Name,
		Email:      nl.Email,
		Phone:      nl.Phone,
		Company:    nl.Company,
		AssignedTo: nl.AssignedTo,
		Status:     StatusNew,
		FollowUps:  []FollowUp{},
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// LeadUpdate is a partial set of scalar lead fields. Nil fields are left
// untouched by LeadStore.UpdateFields.
type LeadUpdate struct {
	Name       *string
	Email      *string
	Phone      *string
	Company    *string
	AssignedTo *string
	Status     *Status
}

// Empty reports whether the update changes nothing.
func (lu LeadUpdate) Empty() bool {
	return lu.Name == nil && lu.Email == nil && lu.Phone == nil &&
		lu.Company == nil && lu.AssignedTo == nil && lu.Status == nil
}

func (lu LeadUpdate) Validate() error {
	required := []struct {
		field string
		value *string
	}{
		{"name", lu.Name},
		{"email", lu.Email},
		{"phone", lu.Phone},
	}
	for _, r := range required {
		if r.value != nil && strings.TrimSpace(*r.value) == "" {
			return fmt.Errorf("%w: %s cannot be empty", ErrInvalidLead, r.field)
		}
	}
	if lu.Status != nil && !lu.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidLead, *lu.Status)
	}
	return nil
}

// Apply merges the provided fields into l.
func (lu LeadUpdate) Apply(l *Lead) {
	if lu.Name != nil {
		l.Name = *lu.Name
	}
	if lu.Email != nil {
		l.Email = *lu.Email
	}
	if lu.Phone != nil {
		l.Phone = *lu.Phone
	}
	if lu.Company != nil {
		l.Company = *lu.Company
	}
	if lu.AssignedTo != nil {
		l.AssignedTo = *lu.AssignedTo
	}
	if lu.Status != nil {
		l.Status = *lu.Status
	}
}

// LeadStore is the durable collection of leads and their embedded
// follow-ups. Every write is applied to a single lead document.
type LeadStore interface {
	// ListAll returns every lead, newest first.
	ListAll(ctx context.Context) ([]Lead, error)
	GetByID(ctx context.Context, id string) (Lead, error)
	Create(ctx context.Context, nl NewLead) (Lead, error)
	UpdateFields(ctx context.Context, id string, lu LeadUpdate) (Lead, error)
	AppendFollowUp(ctx context.Context, id string, in FollowUpInput) (Lead, error)
	// CompleteFollowUp marks a follow-up as completed. It returns
	// ErrLeadNotFound or ErrFollowUpNotFound when either id is unknown.
	CompleteFollowUp(ctx context.Context, leadID, followUpID string) error
	StatusCheck(ctx context.Context) error
}
