package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// StatusChecker reports whether a backing service is reachable.
type StatusChecker interface {
	StatusCheck(ctx context.Context) error
}

type HealthHandler struct {
	store     StatusChecker
	log       *otelzap.SugaredLogger
	timeout   time.Duration
	startTime time.Time
}

func NewHealthHandler(store StatusChecker, log *otelzap.SugaredLogger) *HealthHandler {
	return &HealthHandler{
		store:     store,
		log:       log,
		timeout:   2 * time.Second,
		startTime: time.Now(),
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Store  string `json:"store"`
}

func (h *HealthHandler) Handle(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
		Store:  "healthy",
	}
	status := http.StatusOK

	if err := h.store.StatusCheck(ctx); err != nil {
		h.log.Ctx(ctx).Errorw("Health", "error", err.Error())
		resp.Status = "degraded"
		resp.Store = "unhealthy: " + err.Error()
		status = http.StatusServiceUnavailable
	}

	respond(r.Context(), rw, status, resp)
}
