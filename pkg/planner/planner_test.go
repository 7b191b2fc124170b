package planner

import (
	"context"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stepflow/pkg/cache"
	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/duration"
	apperr "github.com/matzehuels/stepflow/pkg/errors"
	"github.com/matzehuels/stepflow/pkg/observability"
	"github.com/matzehuels/stepflow/pkg/runstore"
)

var example = []dag.Edge{
	{From: "C", To: "A"},
	{From: "C", To: "F"},
	{From: "A", To: "B"},
	{From: "A", To: "D"},
	{From: "B", To: "E"},
	{From: "D", To: "E"},
	{From: "F", To: "E"},
}

func mustBuild(t *testing.T, edges []dag.Edge) *dag.DAG {
	t.Helper()
	g, err := dag.Build(edges)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func newTestRunner(t *testing.T) (*Runner, *runstore.MemoryStore) {
	t.Helper()
	c, err := cache.NewMemoryCache(64)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	store := runstore.NewMemoryStore()
	return NewRunner(c, nil, store, log.New(io.Discard)), store
}

func letterOpts(workers int) Options {
	return Options{Workers: workers, Duration: duration.Letter(0)}
}

func TestPlan(t *testing.T) {
	r, store := newTestRunner(t)
	ctx := context.Background()

	res, err := r.Plan(ctx, mustBuild(t, example), letterOpts(2))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if want := []string{"C", "A", "B", "D", "F", "E"}; !slices.Equal(res.Order, want) {
		t.Errorf("Order = %v, want %v", res.Order, want)
	}
	if len(res.Stages) != 4 {
		t.Errorf("Stages = %v, want 4 stages", res.Stages)
	}
	if res.Schedule == nil || res.Schedule.Makespan != 15 {
		t.Fatalf("Schedule = %+v, want makespan 15", res.Schedule)
	}
	if want := []string{"C", "F", "E"}; !slices.Equal(res.Critical, want) {
		t.Errorf("Critical = %v, want %v", res.Critical, want)
	}
	if res.Cached {
		t.Error("first Plan() reported a cache hit")
	}
	if res.Stats.Tasks != 6 || res.Stats.Edges != 7 {
		t.Errorf("Stats = %+v", res.Stats)
	}

	run, err := store.Get(ctx, res.RunID)
	if err != nil {
		t.Fatalf("run not recorded: %v", err)
	}
	if run.Kind != runstore.KindPlan || run.Result.Makespan != 15 || run.GraphHash != res.GraphHash {
		t.Errorf("recorded run = %+v", run)
	}
}

func TestCaching(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()
	g := mustBuild(t, example)

	first, err := r.Simulate(ctx, g, letterOpts(2))
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Simulate(ctx, g, letterOpts(2))
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("identical Simulate() should hit the cache")
	}
	if second.Schedule.Makespan != first.Schedule.Makespan || !slices.Equal(second.Schedule.Timeline, first.Schedule.Timeline) {
		t.Error("cached schedule differs from computed one")
	}

	tests := []struct {
		name string
		opts Options
	}{
		{"OtherPoolSize", letterOpts(3)},
		{"OtherDurations", Options{Workers: 2, Duration: duration.Letter(60)}},
		{"Refresh", Options{Workers: 2, Duration: duration.Letter(0), Refresh: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Simulate(ctx, g, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if res.Cached {
				t.Error("expected a fresh computation")
			}
		})
	}

	// Order results are cached separately from simulations of the same graph.
	ord, err := r.Order(ctx, g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if ord.Cached || ord.Schedule != nil || len(ord.Order) != 6 {
		t.Errorf("Order() = %+v", ord)
	}
}

func TestCycle(t *testing.T) {
	r, store := newTestRunner(t)
	ctx := context.Background()
	g := mustBuild(t, []dag.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}, {From: "C", To: "A"}, {From: "C", To: "D"}})

	for _, fn := range []func() (*Result, error){
		func() (*Result, error) { return r.Order(ctx, g, Options{}) },
		func() (*Result, error) { return r.Plan(ctx, g, letterOpts(2)) },
		func() (*Result, error) { return r.Simulate(ctx, g, letterOpts(2)) },
	} {
		if _, err := fn(); !apperr.Is(err, apperr.ErrCodeCyclicGraph) {
			t.Errorf("error = %v, want CYCLIC_GRAPH", err)
		}
	}
	if runs, _ := store.List(ctx, 0); len(runs) != 0 {
		t.Errorf("failed runs were recorded: %d", len(runs))
	}

	res, err := r.Plan(ctx, g, Options{Workers: 2, Duration: duration.Letter(0), BreakCycles: true})
	if err != nil {
		t.Fatalf("Plan(BreakCycles) error = %v", err)
	}
	if len(res.Removed) != 1 || len(res.Order) != 4 {
		t.Errorf("Plan(BreakCycles) removed=%v order=%v", res.Removed, res.Order)
	}
	if g.EdgeCount() != 4 {
		t.Errorf("BreakCycles modified the caller's graph: %d edges", g.EdgeCount())
	}
}

func TestValidation(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()
	g := mustBuild(t, example)

	tests := []struct {
		name string
		opts Options
		want apperr.Code
	}{
		{"NoWorkers", Options{Duration: duration.Letter(0)}, apperr.ErrCodeInvalidInput},
		{"NoDuration", Options{Workers: 1}, apperr.ErrCodeInvalidInput},
		{"ZeroDuration", Options{Workers: 1, Duration: duration.Constant(0)}, apperr.ErrCodeInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Plan(ctx, g, tt.opts); apperr.GetCode(err) != tt.want {
				t.Errorf("Plan() error = %v, want %s", err, tt.want)
			}
		})
	}
}

type planRecorder struct {
	observability.NoopPlanHooks
	sequenced, simulated int
	makespan             int
}

func (h *planRecorder) OnSequenceComplete(context.Context, int, time.Duration, error) {
	h.sequenced++
}

func (h *planRecorder) OnSimulateComplete(_ context.Context, makespan int, _ time.Duration, _ error) {
	h.simulated++
	h.makespan = makespan
}

func TestHooks(t *testing.T) {
	hooks := &planRecorder{}
	observability.SetPlanHooks(hooks)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil, log.New(io.Discard))
	if _, err := r.Plan(context.Background(), mustBuild(t, example), letterOpts(2)); err != nil {
		t.Fatal(err)
	}
	if hooks.sequenced != 1 || hooks.simulated != 1 || hooks.makespan != 15 {
		t.Errorf("hooks = %+v", hooks)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Errorf("NewRunner() left nil fields: %+v", r)
	}
	if r.Store != nil {
		t.Error("NewRunner() should not invent a store")
	}
}
