// Package planner runs the scheduling algorithms with caching, run history
// and observability, so the CLI and the HTTP API share one code path.
//
// # Usage
//
//	runner := planner.NewRunner(cache, nil, store, logger)
//	res, err := runner.Plan(ctx, g, planner.Options{
//	    Workers:  5,
//	    Duration: duration.Letter(60),
//	})
//
// [Runner.Order] computes only the completion order and stages,
// [Runner.Simulate] only the worker-pool schedule, and [Runner.Plan] both
// plus the critical chain.
//
// Results are cached under a key derived from the graph, the pool size and
// the resolved duration of every task, so a cached result is only reused for
// an identical computation. Failed computations are never cached.
package planner

import (
	"fmt"
	"time"

	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/duration"
	apperr "github.com/matzehuels/stepflow/pkg/errors"
	"github.com/matzehuels/stepflow/pkg/simulate"
)

// DefaultTTL is how long cached results stay valid when Options.TTL is zero.
const DefaultTTL = 24 * time.Hour

// Options configures a single planning request.
type Options struct {
	// Workers is the simulated pool size. Ignored by Order.
	Workers int
	// Duration gives each task's length. Ignored by Order.
	Duration duration.Func
	// BreakCycles removes back edges before planning instead of failing
	// with CYCLIC_GRAPH. The removed edges are reported in the result.
	BreakCycles bool
	// Refresh skips the cache lookup but still stores the new result.
	Refresh bool
	// TTL overrides DefaultTTL for the stored result.
	TTL time.Duration
}

func (o Options) validateForSimulate() error {
	if err := apperr.ValidateWorkers(o.Workers); err != nil {
		return err
	}
	if o.Duration == nil {
		return apperr.New(apperr.ErrCodeInvalidInput, "duration function is required")
	}
	return nil
}

func (o Options) ttl() time.Duration {
	if o.TTL > 0 {
		return o.TTL
	}
	return DefaultTTL
}

// Result is everything a planning request produced. Fields not computed by
// the request kind are left empty.
type Result struct {
	RunID     string `json:"run_id,omitempty"`
	GraphHash string `json:"graph_hash"`

	Order    []string         `json:"order,omitempty"`
	Stages   [][]string       `json:"stages,omitempty"`
	Schedule *simulate.Result `json:"schedule,omitempty"`
	// Critical is one longest duration-weighted chain.
	Critical []string `json:"critical,omitempty"`
	// Removed lists edges dropped by Options.BreakCycles.
	Removed []dag.Edge `json:"removed,omitempty"`

	Cached bool  `json:"cached"`
	Stats  Stats `json:"stats"`
}

// Stats reports the input size and how long each phase took.
type Stats struct {
	Tasks        int           `json:"tasks"`
	Edges        int           `json:"edges"`
	SequenceTime time.Duration `json:"sequence_time"`
	SimulateTime time.Duration `json:"simulate_time"`
}

// cached is the part of a Result worth storing.
type cached struct {
	Order    []string         `json:"order,omitempty"`
	Stages   [][]string       `json:"stages,omitempty"`
	Schedule *simulate.Result `json:"schedule,omitempty"`
	Critical []string         `json:"critical,omitempty"`
}

// resolveDurations evaluates fn for every task, failing like the simulator
// would on a non-positive value.
func resolveDurations(g *dag.DAG, fn duration.Func) (map[string]int, error) {
	nodes := g.Nodes()
	if err := duration.Validate(fn, nodes); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(nodes))
	for _, id := range nodes {
		out[id] = fn(id)
	}
	return out, nil
}

func kindError(kind string, err error) error {
	return fmt.Errorf("%s: %w", kind, err)
}
