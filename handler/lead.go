package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phbpx/minicrm"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// Messages returned with 404 answers.
const (
	msgLeadNotFound = "Lead not found"
	msgTaskNotFound = "Task not found"
)

type LeadHandler struct {
	store minicrm.LeadStore
	log   *otelzap.SugaredLogger
}

func NewLeadHandler(store minicrm.LeadStore, log *otelzap.SugaredLogger) *LeadHandler {
	return &LeadHandler{
		store: store,
		log:   log,
	}
}

func (lh LeadHandler) List(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leads, err := lh.store.ListAll(ctx)
	if err != nil {
		lh.fail(rw, r, "List", err)
		return
	}

	respond(ctx, rw, http.StatusOK, leads)
}

func (lh LeadHandler) GetByID(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lead, err := lh.store.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		lh.fail(rw, r, "GetByID", err)
		return
	}

	respond(ctx, rw, http.StatusOK, lead)
}

// Create stores a new lead. Any status in the body is ignored.
func (lh LeadHandler) Create(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var nl minicrm.NewLead
	if err := decode(rw, r, &nl); err != nil {
		lh.log.Ctx(ctx).Warnw("Create", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err.Error())
		return
	}

	lead, err := lh.store.Create(ctx, nl)
	if err != nil {
		lh.fail(rw, r, "Create", err)
		return
	}
	leadsCreated.Inc()

	respond(ctx, rw, http.StatusOK, lead)
}

type markCompleteRequest struct {
	LeadID     string `json:"leadId"`
	FollowUpID string `json:"followUpId"`
}

type markCompleteResponse struct {
	Success bool `json:"success"`
}

func (lh LeadHandler) MarkComplete(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req markCompleteRequest
	if err := decode(rw, r, &req); err != nil {
		lh.log.Ctx(ctx).Warnw("MarkComplete", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err.Error())
		return
	}
	if req.LeadID == "" || req.FollowUpID == "" {
		respondErr(ctx, rw, http.StatusBadRequest, "leadId and followUpId are required")
		return
	}

	if err := lh.store.CompleteFollowUp(ctx, req.LeadID, req.FollowUpID); err != nil {
		lh.fail(rw, r, "MarkComplete", err)
		return
	}
	followUpsCompleted.Inc()

	respond(ctx, rw, http.StatusOK, markCompleteResponse{Success: true})
}

// Update merges the lead fields of the body into the lead and, when both
// followUpDate and followUpNotes are given, schedules a new follow-up.
func (lh LeadHandler) Update(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var patch minicrm.LeadPatch
	if err := decode(rw, r, &patch); err != nil {
		lh.log.Ctx(ctx).Warnw("Update", "id", id, "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err.Error())
		return
	}

	followUp, schedule, err := patch.FollowUp()
	if err != nil {
		lh.fail(rw, r, "Update", err)
		return
	}

	lead, err := lh.store.UpdateFields(ctx, id, patch.Fields())
	if err != nil {
		lh.fail(rw, r, "Update", err)
		return
	}

	if schedule {
		lead, err = lh.store.AppendFollowUp(ctx, id, followUp)
		if err != nil {
			lh.fail(rw, r, "Update", err)
			return
		}
		followUpsScheduled.Inc()
	}

	respond(ctx, rw, http.StatusOK, lead)
}

// fail maps store and validation errors onto HTTP answers.
func (lh LeadHandler) fail(rw http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	log := lh.log.Ctx(ctx)

	switch {
	case errors.Is(err, minicrm.ErrLeadNotFound):
		log.Infow(op, "status", "lead not found", "path", r.URL.Path)
		respondErr(ctx, rw, http.StatusNotFound, msgLeadNotFound)
	case errors.Is(err, minicrm.ErrFollowUpNotFound):
		log.Infow(op, "status", "follow-up not found", "path", r.URL.Path)
		respondErr(ctx, rw, http.StatusNotFound, msgTaskNotFound)
	case errors.Is(err, minicrm.ErrInvalidLead):
		log.Warnw(op, "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err.Error())
	default:
		log.Errorw(op, "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, err.Error())
	}
}
