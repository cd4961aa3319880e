package views

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/phbpx/minicrm"
	"go.uber.org/zap"
)

// PendingFollowUp is an open follow-up decorated with its lead.
type PendingFollowUp struct {
	minicrm.FollowUp
	LeadID      string `json:"leadId"`
	LeadName    string `json:"leadName"`
	LeadCompany string `json:"leadCompany,omitempty"`
}

// PendingFollowUps flattens the follow-ups of every lead, keeps the ones not
// yet completed and orders them by due date, earliest first.
func PendingFollowUps(leads []minicrm.Lead) []PendingFollowUp {
	pending := []PendingFollowUp{}
	for _, l := range leads {
		for _, fu := range l.FollowUps {
			if fu.IsCompleted {
				continue
			}
			pending = append(pending, PendingFollowUp{
				FollowUp:    fu,
				LeadID:      l.ID,
				LeadName:    l.Name,
				LeadCompany: l.Company,
			})
		}
	}
	sortByDate(pending)
	return pending
}

func sortByDate(tasks []PendingFollowUp) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Date.Before(tasks[j].Date)
	})
}

// Completer confirms a follow-up completion with the server.
type Completer interface {
	CompleteFollowUp(ctx context.Context, leadID, followUpID string) error
}

// FollowUpQueue is the pending follow-up list of one client session.
type FollowUpQueue struct {
	mu        sync.Mutex
	tasks     []PendingFollowUp
	completer Completer
	log       *zap.SugaredLogger
}

func NewFollowUpQueue(leads []minicrm.Lead, completer Completer, log *zap.SugaredLogger) *FollowUpQueue {
	return &FollowUpQueue{
		tasks:     PendingFollowUps(leads),
		completer: completer,
		log:       log,
	}
}

// Tasks returns a snapshot of the queue.
func (q *FollowUpQueue) Tasks() []PendingFollowUp {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]PendingFollowUp{}, q.tasks...)
}

// Complete drops the follow-up from the queue right away and then asks the
// server to complete it. If the server refuses, the follow-up is put back and
// the error is returned for the caller to report.
func (q *FollowUpQueue) Complete(ctx context.Context, leadID, followUpID string) error {
	q.mu.Lock()
	var removed []PendingFollowUp
	kept := q.tasks[:0:0]
	for _, t := range q.tasks {
		if t.ID == followUpID {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	q.tasks = kept
	q.mu.Unlock()

	if err := q.completer.CompleteFollowUp(ctx, leadID, followUpID); err != nil {
		q.log.Errorw("CompleteFollowUp", "leadId", leadID, "followUpId", followUpID, "error", err)

		q.mu.Lock()
		q.tasks = append(q.tasks, removed...)
		sortByDate(q.tasks)
		q.mu.Unlock()

		return fmt.Errorf("completing follow-up: %w", err)
	}
	return nil
}
