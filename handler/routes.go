package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phbpx/minicrm"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// Config holds what the router needs to serve the lead API.
type Config struct {
	ServiceName    string
	Store          minicrm.LeadStore
	Log            *otelzap.SugaredLogger
	AllowedOrigins []string
}

// NewRouter wires the middleware stack and the lead routes.
func NewRouter(cfg Config) http.Handler {
	leadHandler := NewLeadHandler(cfg.Store, cfg.Log)
	healthHandler := NewHealthHandler(cfg.Store, cfg.Log)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(otelchi.Middleware(cfg.ServiceName, otelchi.WithChiRoutes(r)))
	r.Use(Metrics)

	r.Route("/api/leads", func(r chi.Router) {
		r.Get("/", leadHandler.List)
		r.Post("/", leadHandler.Create)
		r.Put("/mark-complete", leadHandler.MarkComplete)
		r.Get("/{id}", leadHandler.GetByID)
		r.Put("/{id}", leadHandler.Update)
	})

	r.Get("/health", healthHandler.Handle)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
