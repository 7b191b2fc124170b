package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stepflow/pkg/buildinfo"
	"github.com/matzehuels/stepflow/pkg/config"
	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/duration"
	apperr "github.com/matzehuels/stepflow/pkg/errors"
	"github.com/matzehuels/stepflow/pkg/parse"
	"github.com/matzehuels/stepflow/pkg/planner"
	"github.com/matzehuels/stepflow/pkg/render/dot"
	"github.com/matzehuels/stepflow/pkg/simulate"
)

// PlanRequest is the body accepted by the planning routes.
type PlanRequest struct {
	// Edges lists [prerequisite, dependent] pairs.
	Edges [][2]string `json:"edges,omitempty"`
	// Tasks declares tasks that may have no edges.
	Tasks []string `json:"tasks,omitempty"`
	// Text holds line-based constraints, used when Edges is empty.
	Text    string `json:"text,omitempty"`
	Lenient bool   `json:"lenient,omitempty"`

	Workers     int            `json:"workers,omitempty"`
	Base        *int           `json:"base,omitempty"`
	Durations   map[string]int `json:"durations,omitempty"`
	BreakCycles bool           `json:"break_cycles,omitempty"`
	Refresh     bool           `json:"refresh,omitempty"`
}

// SkippedLine reports a constraint line dropped in lenient mode.
type SkippedLine struct {
	Line  int    `json:"line"`
	Text  string `json:"text"`
	Error string `json:"error"`
}

// PlanResponse is a planner result plus any skipped input lines.
type PlanResponse struct {
	*planner.Result
	Skipped []SkippedLine `json:"skipped,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Get(),
	})
}

func (h *Handler) order(w http.ResponseWriter, r *http.Request) {
	h.runPlanner(w, r, h.runner.Order)
}

func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) {
	h.runPlanner(w, r, h.runner.Simulate)
}

func (h *Handler) plan(w http.ResponseWriter, r *http.Request) {
	h.runPlanner(w, r, h.runner.Plan)
}

type plannerFunc func(context.Context, *dag.DAG, planner.Options) (*planner.Result, error)

func (h *Handler) runPlanner(w http.ResponseWriter, r *http.Request, run plannerFunc) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	g, skipped, err := req.graph()
	if err != nil {
		writeError(w, err)
		return
	}

	workers := req.Workers
	if workers == 0 {
		workers = h.cfg.Workers
	}
	res, err := run(r.Context(), g, planner.Options{
		Workers:     workers,
		Duration:    h.durationFunc(req),
		BreakCycles: req.BreakCycles,
		Refresh:     req.Refresh,
		TTL:         h.cfg.Cache.TTL.Duration,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PlanResponse{Result: res, Skipped: skipped})
}

func (h *Handler) dot(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	g, _, err := req.graph()
	if err != nil {
		writeError(w, err)
		return
	}

	opts := dot.Options{Stages: true}
	if chain, err := simulate.CriticalChain(g, h.durationFunc(req)); err == nil {
		opts.Highlight = make(map[string]bool, len(chain))
		for _, id := range chain {
			opts.Highlight[id] = true
		}
	}
	src := dot.ToDOT(g, opts)

	if r.URL.Query().Get("format") != "svg" {
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		_, _ = io.WriteString(w, src)
		return
	}
	svg, err := dot.RenderSVG(r.Context(), src)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.ErrCodeInternal, err, "render svg"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, apperr.New(apperr.ErrCodeUnsupported, "run history is disabled"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, apperr.New(apperr.ErrCodeInvalidInput, "invalid limit %q", raw))
			return
		}
		limit = n
	}
	runs, err := h.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, apperr.New(apperr.ErrCodeUnsupported, "run history is disabled"))
		return
	}
	run, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// durationFunc applies the request's overrides on top of the configured
// duration model.
func (h *Handler) durationFunc(req *PlanRequest) duration.Func {
	cfg := *h.cfg
	if req.Base != nil {
		cfg.BaseDuration = *req.Base
	}
	if len(req.Durations) > 0 {
		merged := make(map[string]int, len(cfg.Durations)+len(req.Durations))
		for k, v := range cfg.Durations {
			merged[k] = v
		}
		for k, v := range req.Durations {
			merged[k] = v
		}
		cfg.Durations = merged
	}
	return cfg.DurationFunc()
}

func decode(w http.ResponseWriter, r *http.Request) (*PlanRequest, bool) {
	var req PlanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, string(apperr.ErrCodeInvalidInput), "request body too large")
			return nil, false
		}
		writeError(w, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode request"))
		return nil, false
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return nil, false
	}
	return &req, true
}

// validate bounds the scheduling overrides before any work is done.
func (req *PlanRequest) validate() error {
	if req.Workers != 0 {
		if err := apperr.ValidateWorkers(req.Workers); err != nil {
			return err
		}
	}
	if req.Base != nil && (*req.Base < 0 || *req.Base > config.MaxBaseDuration) {
		return apperr.New(apperr.ErrCodeInvalidDuration, "base must be between 0 and %d, got %d", config.MaxBaseDuration, *req.Base)
	}
	for task, d := range req.Durations {
		if d <= 0 || d > duration.Max {
			return apperr.New(apperr.ErrCodeInvalidDuration, "task %q must take between 1 and %d ticks, got %d", task, duration.Max, d)
		}
	}
	return nil
}

// graph builds the request's graph from Edges and Tasks, or from Text when
// no edges are given.
func (req *PlanRequest) graph() (*dag.DAG, []SkippedLine, error) {
	if len(req.Edges) == 0 && strings.TrimSpace(req.Text) != "" {
		res, err := parse.ParseString(req.Text, parse.Options{Lenient: req.Lenient})
		if err != nil {
			return nil, nil, err
		}
		var skipped []SkippedLine
		for _, s := range res.Skipped {
			skipped = append(skipped, SkippedLine{Line: s.Line, Text: s.Text, Error: apperr.UserMessage(s.Err)})
		}
		return res.Graph, skipped, nil
	}

	edges := make([]dag.Edge, len(req.Edges))
	for i, e := range req.Edges {
		edges[i] = dag.Edge{From: e[0], To: e[1]}
	}
	g, err := dag.Build(edges)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range req.Tasks {
		if err := apperr.ValidateTaskID(id); err != nil {
			return nil, nil, err
		}
		if !g.Has(id) {
			_ = g.AddNode(id)
		}
	}
	return g, nil, nil
}
