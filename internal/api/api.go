// Package api exposes the planner over HTTP.
//
// Routes:
//
//	GET  /healthz            liveness and build info
//	POST /v1/order           completion order and stages
//	POST /v1/simulate        worker-pool schedule
//	POST /v1/plan            both, plus the critical chain
//	POST /v1/dot             Graphviz source (or SVG with ?format=svg)
//	GET  /v1/runs            recent runs, newest first (?limit=N)
//	GET  /v1/runs/{id}       one recorded run
//
// Request bodies carry the graph either as edges or as constraint text:
//
//	{"edges": [["C", "A"], ["C", "F"]], "workers": 2, "base": 0}
//	{"text": "Step C must be finished before step A can begin.\n"}
//
// Errors are returned as {"code": "...", "message": "..."}.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stepflow/pkg/config"
	"github.com/matzehuels/stepflow/pkg/planner"
	"github.com/matzehuels/stepflow/pkg/runstore"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the API. Defaults for pool size and durations come from
// the config; requests may override them.
type Handler struct {
	runner *planner.Runner
	store  runstore.Store
	cfg    *config.Config
	logger *log.Logger
}

// NewHandler creates a handler. store may be nil, in which case the run
// history routes answer 501.
func NewHandler(runner *planner.Runner, store runstore.Store, cfg *config.Config, logger *log.Logger) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{runner: runner, store: store, cfg: cfg, logger: logger}
}

// Routes returns the router with request IDs, panic recovery and access
// logging installed.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/order", h.order)
		r.Post("/simulate", h.simulate)
		r.Post("/plan", h.plan)
		r.Post("/dot", h.dot)
		r.Get("/runs", h.listRuns)
		r.Get("/runs/{id}", h.getRun)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
