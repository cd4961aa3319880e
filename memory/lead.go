// Package memory provides an in-process LeadStore. Data lives only as long
// as the process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phbpx/minicrm"
)

type LeadStore struct {
	mu    sync.RWMutex
	leads map[string]*minicrm.Lead
	now   func() time.Time
}

func NewLeadStore() *LeadStore {
	return &LeadStore{
		leads: make(map[string]*minicrm.Lead),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for createdAt and modifiedAt.
func (s *LeadStore) WithClock(now func() time.Time) *LeadStore {
	s.now = now
	return s
}

func (s *LeadStore) ListAll(ctx context.Context) ([]minicrm.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leads := make([]minicrm.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		leads = append(leads, clone(l))
	}

	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})

	return leads, nil
}

func (s *LeadStore) GetByID(ctx context.Context, id string) (minicrm.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leads[id]
	if !ok {
		return minicrm.Lead{}, minicrm.ErrLeadNotFound
	}
	return clone(l), nil
}

func (s *LeadStore) Create(ctx context.Context, nl minicrm.NewLead) (minicrm.Lead, error) {
	if err := nl.Validate(); err != nil {
		return minicrm.Lead{}, err
	}

	lead := nl.Lead(uuid.NewString(), s.now())

	s.mu.Lock()
	s.leads[lead.ID] = &lead
	s.mu.Unlock()

	return clone(&lead), nil
}

func (s *LeadStore) UpdateFields(ctx context.Context, id string, lu minicrm.LeadUpdate) (minicrm.Lead, error) {
	if err := lu.Validate(); err != nil {
		return minicrm.Lead{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leads[id]
	if !ok {
		return minicrm.Lead{}, minicrm.ErrLeadNotFound
	}

	if !lu.Empty() {
		lu.Apply(l)
		l.ModifiedAt = s.now()
	}
	return clone(l), nil
}

func (s *LeadStore) AppendFollowUp(ctx context.Context, id string, in minicrm.FollowUpInput) (minicrm.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leads[id]
	if !ok {
		return minicrm.Lead{}, minicrm.ErrLeadNotFound
	}

	l.FollowUps = append(l.FollowUps, in.FollowUp(uuid.NewString()))
	l.ModifiedAt = s.now()
	return clone(l), nil
}

func (s *LeadStore) CompleteFollowUp(ctx context.Context, leadID, followUpID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leads[leadID]
	if !ok {
		return minicrm.ErrLeadNotFound
	}

	for i := range l.FollowUps {
		if l.FollowUps[i].ID == followUpID {
			l.FollowUps[i].IsCompleted = true
			l.ModifiedAt = s.now()
			return nil
		}
	}
	return minicrm.ErrFollowUpNotFound
}

func (s *LeadStore) StatusCheck(ctx context.Context) error {
	return ctx.Err()
}

func clone(l *minicrm.Lead) minicrm.Lead {
	c := *l
	c.FollowUps = append([]minicrm.FollowUp{}, l.FollowUps...)
	return c
}
