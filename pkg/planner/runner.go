package planner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stepflow/pkg/cache"
	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/dag/transform"
	"github.com/matzehuels/stepflow/pkg/observability"
	"github.com/matzehuels/stepflow/pkg/runstore"
	"github.com/matzehuels/stepflow/pkg/sequence"
	"github.com/matzehuels/stepflow/pkg/simulate"
)

// Runner encapsulates planning with caching and run history.
//
// The Runner holds no per-request state, so multiple goroutines can share
// one Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  runstore.Store // optional
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer uses
// cache.DefaultKeyer, a nil store disables run history and a nil logger
// uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, store runstore.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Store: store, Logger: logger}
}

// Order computes the completion order and the parallel stages of g.
func (r *Runner) Order(ctx context.Context, g *dag.DAG, opts Options) (*Result, error) {
	return r.run(ctx, runstore.KindOrder, g, opts)
}

// Simulate schedules g on opts.Workers workers.
func (r *Runner) Simulate(ctx context.Context, g *dag.DAG, opts Options) (*Result, error) {
	if err := opts.validateForSimulate(); err != nil {
		return nil, err
	}
	return r.run(ctx, runstore.KindSimulate, g, opts)
}

// Plan computes the order, the stages, the schedule and the critical chain.
func (r *Runner) Plan(ctx context.Context, g *dag.DAG, opts Options) (*Result, error) {
	if err := opts.validateForSimulate(); err != nil {
		return nil, err
	}
	return r.run(ctx, runstore.KindPlan, g, opts)
}

func (r *Runner) run(ctx context.Context, kind string, g *dag.DAG, opts Options) (*Result, error) {
	work := g.Clone()
	res := &Result{}
	if opts.BreakCycles {
		res.Removed = transform.BreakCycles(work)
		if len(res.Removed) > 0 {
			r.Logger.Warn("removed edges to break cycles", "count", len(res.Removed), "edges", res.Removed)
		}
	}
	res.GraphHash = r.Keyer.GraphHash(work)
	res.Stats.Tasks = work.NodeCount()
	res.Stats.Edges = work.EdgeCount()

	keyOpts := cache.PlanKeyOpts{Kind: kind}
	if kind != runstore.KindOrder {
		durations, err := resolveDurations(work, opts.Duration)
		if err != nil {
			return nil, kindError(kind, err)
		}
		keyOpts.Workers = opts.Workers
		keyOpts.Durations = durations
	}
	key := r.Keyer.PlanKey(res.GraphHash, keyOpts)

	if !opts.Refresh && r.fromCache(ctx, key, res) {
		r.Logger.Debug("cache hit", "kind", kind, "tasks", res.Stats.Tasks)
		r.record(ctx, kind, res)
		return res, nil
	}

	if kind != runstore.KindSimulate {
		if err := r.sequence(ctx, work, res); err != nil {
			return nil, kindError(kind, err)
		}
	}
	if kind != runstore.KindOrder {
		if err := r.simulate(ctx, work, opts, res); err != nil {
			return nil, kindError(kind, err)
		}
	}
	if kind == runstore.KindPlan {
		chain, err := simulate.CriticalChain(work, opts.Duration)
		if err != nil {
			return nil, kindError(kind, err)
		}
		res.Critical = chain
	}

	r.toCache(ctx, key, res, opts.ttl())
	r.record(ctx, kind, res)
	return res, nil
}

func (r *Runner) sequence(ctx context.Context, g *dag.DAG, res *Result) error {
	hooks := observability.Plan()
	hooks.OnSequenceStart(ctx, g.NodeCount())
	start := time.Now()

	order, err := sequence.Order(g)
	if err == nil {
		res.Order = order
		res.Stages, err = sequence.Stages(g)
	}

	res.Stats.SequenceTime = time.Since(start)
	hooks.OnSequenceComplete(ctx, g.NodeCount(), res.Stats.SequenceTime, err)
	if err != nil {
		return err
	}
	r.Logger.Info("computed order",
		"tasks", len(res.Order),
		"stages", len(res.Stages),
		"duration", res.Stats.SequenceTime)
	return nil
}

func (r *Runner) simulate(ctx context.Context, g *dag.DAG, opts Options, res *Result) error {
	hooks := observability.Plan()
	hooks.OnSimulateStart(ctx, g.NodeCount(), opts.Workers)
	start := time.Now()

	schedule, err := simulate.Run(g, simulate.Options{Workers: opts.Workers, Duration: opts.Duration})

	res.Stats.SimulateTime = time.Since(start)
	makespan := 0
	if schedule != nil {
		makespan = schedule.Makespan
	}
	hooks.OnSimulateComplete(ctx, makespan, res.Stats.SimulateTime, err)
	if err != nil {
		return err
	}
	res.Schedule = schedule
	r.Logger.Info("simulated schedule",
		"workers", opts.Workers,
		"makespan", schedule.Makespan,
		"duration", res.Stats.SimulateTime)
	return nil
}

func (r *Runner) fromCache(ctx context.Context, key string, res *Result) bool {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
		return false
	}
	if !hit {
		return false
	}
	var c cached
	if err := json.Unmarshal(data, &c); err != nil {
		r.Logger.Warn("discarding unreadable cache entry", "error", err)
		_ = r.Cache.Delete(ctx, key)
		return false
	}
	res.Order, res.Stages, res.Schedule, res.Critical = c.Order, c.Stages, c.Schedule, c.Critical
	res.Cached = true
	return true
}

func (r *Runner) toCache(ctx context.Context, key string, res *Result, ttl time.Duration) {
	data, err := json.Marshal(cached{Order: res.Order, Stages: res.Stages, Schedule: res.Schedule, Critical: res.Critical})
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	}
}

// record saves the run to the store. A failing store is logged, not
// returned: the plan itself succeeded.
func (r *Runner) record(ctx context.Context, kind string, res *Result) {
	if r.Store == nil {
		return
	}
	run := runstore.NewRun(kind)
	run.GraphHash = res.GraphHash
	run.Tasks = res.Stats.Tasks
	run.Edges = res.Stats.Edges
	run.Order = res.Order
	run.Stages = res.Stages
	run.Result = res.Schedule
	run.Cached = res.Cached

	if err := r.Store.Save(ctx, run); err != nil {
		r.Logger.Warn("failed to record run", "error", err)
		return
	}
	res.RunID = run.ID
}
