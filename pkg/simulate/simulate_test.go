package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/duration"
	apperr "github.com/matzehuels/stepflow/pkg/errors"
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
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestRun_Example(t *testing.T) {
	g := mustBuild(t, example)

	res, err := Run(g, Options{Workers: 2, Duration: duration.Letter(0)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Makespan != 15 {
		t.Errorf("Makespan = %d, want 15", res.Makespan)
	}
	if res.CriticalPath != 14 {
		t.Errorf("CriticalPath = %d, want 14", res.CriticalPath)
	}

	wantTimeline := []Assignment{
		{Task: "C", Worker: 0, Start: 0, End: 3},
		{Task: "F", Worker: 0, Start: 3, End: 9},
		{Task: "A", Worker: 1, Start: 3, End: 4},
		{Task: "D", Worker: 1, Start: 4, End: 8},
		{Task: "B", Worker: 1, Start: 8, End: 10},
		{Task: "E", Worker: 0, Start: 10, End: 15},
	}
	if !slices.Equal(res.Timeline, wantTimeline) {
		t.Errorf("Timeline = %v, want %v", res.Timeline, wantTimeline)
	}
	if want := []string{"C", "A", "D", "F", "B", "E"}; !slices.Equal(res.Order, want) {
		t.Errorf("Order = %v, want %v", res.Order, want)
	}
	if g.NodeCount() != 6 {
		t.Errorf("Run() consumed the input graph: %d nodes left", g.NodeCount())
	}
}

func TestRun_PoolSizes(t *testing.T) {
	tests := []struct {
		workers int
		want    int
	}{
		{1, 21},
		{2, 15},
		{3, 14},
		{10, 14},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("workers=%d", tt.workers), func(t *testing.T) {
			res, err := Run(mustBuild(t, example), Options{Workers: tt.workers, Duration: duration.Letter(0)})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Makespan != tt.want {
				t.Errorf("Makespan = %d, want %d", res.Makespan, tt.want)
			}
		})
	}
}

func TestRun_Empty(t *testing.T) {
	res, err := Run(dag.New(), Options{Workers: 3, Duration: duration.Constant(1)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Makespan != 0 || len(res.Timeline) != 0 || len(res.Order) != 0 {
		t.Errorf("Run() = %+v, want empty schedule", res)
	}
	if u := res.Utilization(); u != 0 {
		t.Errorf("Utilization() = %v, want 0", u)
	}
}

func TestRun_IndependentTasks(t *testing.T) {
	g := dag.New()
	for _, id := range []string{"A", "B", "C", "D"} {
		if err := g.AddNode(id); err != nil {
			t.Fatal(err)
		}
	}

	res, err := Run(g, Options{Workers: 2, Duration: duration.Letter(0)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Makespan != 5 {
		t.Errorf("Makespan = %d, want 5", res.Makespan)
	}
	// Longest task first: D and C start together, then B and A fill in.
	if want := []string{"C", "D", "A", "B"}; !slices.Equal(res.Order, want) {
		t.Errorf("Order = %v, want %v", res.Order, want)
	}
}

func TestRun_TiesGoToSmallerIdentity(t *testing.T) {
	g := dag.New()
	for _, id := range []string{"z", "m", "a"} {
		_ = g.AddNode(id)
	}

	res, err := Run(g, Options{Workers: 1, Duration: duration.Constant(2)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := []string{"a", "m", "z"}; !slices.Equal(res.Order, want) {
		t.Errorf("Order = %v, want %v", res.Order, want)
	}
	if res.Makespan != 6 {
		t.Errorf("Makespan = %d, want 6", res.Makespan)
	}
}

func TestRun_Validation(t *testing.T) {
	words := mustBuild(t, []dag.Edge{{From: "fetch", To: "build"}})

	tests := []struct {
		name string
		g    *dag.DAG
		opts Options
		want apperr.Code
	}{
		{"ZeroWorkers", mustBuild(t, example), Options{Workers: 0, Duration: duration.Letter(0)}, apperr.ErrCodeInvalidInput},
		{"NegativeWorkers", mustBuild(t, example), Options{Workers: -2, Duration: duration.Letter(0)}, apperr.ErrCodeInvalidInput},
		{"NilDuration", mustBuild(t, example), Options{Workers: 1}, apperr.ErrCodeInvalidInput},
		{"ZeroDuration", mustBuild(t, example), Options{Workers: 1, Duration: duration.Constant(0)}, apperr.ErrCodeInvalidDuration},
		{"LetterOnWords", words, Options{Workers: 1, Duration: duration.Letter(60)}, apperr.ErrCodeInvalidDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(tt.g, tt.opts)
			if err == nil {
				t.Fatalf("Run() = %+v, want error", res)
			}
			if got := apperr.GetCode(err); got != tt.want {
				t.Errorf("code = %s, want %s (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestRun_Cycle(t *testing.T) {
	g := mustBuild(t, []dag.Edge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "C", To: "B"},
	})

	_, err := Run(g, Options{Workers: 2, Duration: duration.Letter(0)})
	if !apperr.Is(err, apperr.ErrCodeCyclicGraph) {
		t.Fatalf("Run() error = %v, want CYCLIC_GRAPH", err)
	}
	if !errors.Is(err, dag.ErrGraphHasCycle) {
		t.Errorf("error does not wrap ErrGraphHasCycle: %v", err)
	}
}

func TestRun_PoolLargerThanGraph(t *testing.T) {
	g := mustBuild(t, example)

	res, err := Run(g, Options{Workers: apperr.MaxWorkers, Duration: duration.Letter(0)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Makespan != 14 {
		t.Errorf("Makespan = %d, want 14", res.Makespan)
	}
	if res.Workers != apperr.MaxWorkers {
		t.Errorf("Workers = %d, want %d", res.Workers, apperr.MaxWorkers)
	}
	if got := len(res.ByWorker()); got != g.NodeCount() {
		t.Errorf("len(ByWorker()) = %d, want %d", got, g.NodeCount())
	}
	for _, a := range res.Timeline {
		if a.Worker >= g.NodeCount() {
			t.Errorf("%s ran on worker %d, want one of the first %d", a.Task, a.Worker, g.NodeCount())
		}
	}

	for _, n := range []int{apperr.MaxWorkers + 1, math.MaxInt} {
		if _, err := Run(g, Options{Workers: n, Duration: duration.Letter(0)}); !apperr.Is(err, apperr.ErrCodeInvalidInput) {
			t.Errorf("Run(workers=%d) error = %v, want INVALID_INPUT", n, err)
		}
	}
}

func TestRun_LongDurations(t *testing.T) {
	g := mustBuild(t, []dag.Edge{{From: "A", To: "B"}, {From: "A", To: "C"}})

	var events []Event
	res, err := Run(g, Options{
		Workers:  2,
		Duration: duration.Table(map[string]int{"C": 3}, duration.Constant(duration.Max)),
		Trace:    func(e Event) { events = append(events, e) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := 2 * duration.Max; res.Makespan != want {
		t.Errorf("Makespan = %d, want %d", res.Makespan, want)
	}
	if want := []string{"A", "C", "B"}; !slices.Equal(res.Order, want) {
		t.Errorf("Order = %v, want %v", res.Order, want)
	}
	want := []Event{
		{Kind: Dispatched, Tick: 0, Worker: 0, Task: "A"},
		{Kind: Completed, Tick: duration.Max, Worker: 0, Task: "A"},
		{Kind: Dispatched, Tick: duration.Max, Worker: 0, Task: "B"},
		{Kind: Dispatched, Tick: duration.Max, Worker: 1, Task: "C"},
		{Kind: Completed, Tick: duration.Max + 3, Worker: 1, Task: "C"},
		{Kind: Completed, Tick: 2 * duration.Max, Worker: 0, Task: "B"},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v, want %+v", events, want)
	}

	if _, err := Run(g, Options{Workers: 1, Duration: duration.Letter(1 << 40)}); !apperr.Is(err, apperr.ErrCodeInvalidDuration) {
		t.Errorf("Run(huge base) error = %v, want INVALID_DURATION", err)
	}
}

func TestSimulator_RunStuck(t *testing.T) {
	// Bypass New so the tick loop itself meets the cycle.
	g := mustBuild(t, []dag.Edge{{From: "A", To: "B"}, {From: "B", To: "A"}})
	_ = g.AddNode("C")
	s := &Simulator{graph: g, opts: Options{Workers: 2, Duration: duration.Constant(1)}}

	res, err := s.Run()
	if !apperr.Is(err, apperr.ErrCodeCyclicGraph) {
		t.Fatalf("Run() = %+v, %v, want CYCLIC_GRAPH", res, err)
	}
	if want := "2 tasks can never become ready: [A B]"; apperr.UserMessage(err) != want {
		t.Errorf("message = %q, want %q", apperr.UserMessage(err), want)
	}
}

func TestSimulator_RunIsRepeatable(t *testing.T) {
	g := mustBuild(t, example)
	s, err := New(g, Options{Workers: 2, Duration: duration.Letter(60)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Mutating the source graph must not affect the frozen copy.
	if err := g.AddNode("Z"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge("E", "Z"); err != nil {
		t.Fatal(err)
	}

	first, err := s.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := s.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Run() not repeatable:\n%+v\n%+v", first, second)
	}
	if len(first.Order) != 6 {
		t.Errorf("Order = %v, want 6 tasks", first.Order)
	}
}

func TestCriticalPaths(t *testing.T) {
	got, err := CriticalPaths(mustBuild(t, example), duration.Letter(0))
	if err != nil {
		t.Fatalf("CriticalPaths() error = %v", err)
	}
	want := map[string]int{"E": 5, "B": 7, "D": 9, "F": 11, "A": 10, "C": 14}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CriticalPaths() = %v, want %v", got, want)
	}

	length, err := CriticalPathLength(mustBuild(t, example), duration.Letter(0))
	if err != nil || length != 14 {
		t.Errorf("CriticalPathLength() = %d, %v; want 14", length, err)
	}
}

func TestCriticalChain(t *testing.T) {
	got, err := CriticalChain(mustBuild(t, example), duration.Letter(0))
	if err != nil {
		t.Fatalf("CriticalChain() error = %v", err)
	}
	if want := []string{"C", "F", "E"}; !slices.Equal(got, want) {
		t.Errorf("CriticalChain() = %v, want %v", got, want)
	}

	empty, err := CriticalChain(dag.New(), duration.Constant(1))
	if err != nil || len(empty) != 0 {
		t.Errorf("CriticalChain(empty) = %v, %v", empty, err)
	}
}

func TestCriticalPaths_Cycle(t *testing.T) {
	g := mustBuild(t, []dag.Edge{
		{From: "A", To: "B"},
		{From: "B", To: "A"},
		{From: "B", To: "C"},
	})
	_, err := CriticalPaths(g, duration.Constant(1))
	if !apperr.Is(err, apperr.ErrCodeCyclicGraph) {
		t.Fatalf("CriticalPaths() error = %v, want CYCLIC_GRAPH", err)
	}
	if msg := apperr.UserMessage(err); msg != "2 tasks can never become ready: [A B]" {
		t.Errorf("message = %q", msg)
	}
}

func TestTrace(t *testing.T) {
	var events []Event
	_, err := Run(mustBuild(t, example), Options{
		Workers:  2,
		Duration: duration.Letter(0),
		Trace:    func(e Event) { events = append(events, e) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(events) != 12 {
		t.Fatalf("got %d events, want 12", len(events))
	}
	if want := (Event{Kind: Dispatched, Tick: 0, Worker: 0, Task: "C"}); events[0] != want {
		t.Errorf("first event = %+v, want %+v", events[0], want)
	}
	if want := (Event{Kind: Completed, Tick: 15, Worker: 0, Task: "E"}); events[len(events)-1] != want {
		t.Errorf("last event = %+v, want %+v", events[len(events)-1], want)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Tick < events[i-1].Tick {
			t.Fatalf("events out of order at %d: %+v after %+v", i, events[i], events[i-1])
		}
	}
}

func TestResultHelpers(t *testing.T) {
	res, err := Run(mustBuild(t, example), Options{Workers: 2, Duration: duration.Letter(0)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if u := res.Utilization(); u != 0.7 {
		t.Errorf("Utilization() = %v, want 0.7", u)
	}
	if got := res.Running(5); !slices.Equal(got, []string{"F", "D"}) {
		t.Errorf("Running(5) = %v, want [F D]", got)
	}
	if got := res.Running(9); !slices.Equal(got, []string{"", "B"}) {
		t.Errorf("Running(9) = %q, want [\"\" B]", got)
	}

	rows := res.ByWorker()
	var w0 []string
	for _, a := range rows[0] {
		w0 = append(w0, a.Task)
	}
	if want := []string{"C", "F", "E"}; !slices.Equal(w0, want) {
		t.Errorf("worker 0 = %v, want %v", w0, want)
	}
}

// randomDAG returns edges that only point from lower to higher index, so the
// graph is acyclic by construction.
func randomDAG(r *rand.Rand, n int, density float64) []dag.Edge {
	var edges []dag.Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r.Float64() < density {
				edges = append(edges, dag.Edge{From: fmt.Sprintf("t%02d", i), To: fmt.Sprintf("t%02d", j)})
			}
		}
	}
	return edges
}

func TestRun_ScheduleProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))

	for trial := 0; trial < 40; trial++ {
		g := mustBuild(t, randomDAG(r, 2+r.IntN(18), 0.25))
		durations := make(map[string]int)
		for _, id := range g.Nodes() {
			durations[id] = 1 + r.IntN(9)
		}
		fn := duration.Table(durations, nil)
		sum := duration.Sum(fn, g.Nodes())

		for workers := 1; workers <= 4; workers++ {
			res, err := Run(g, Options{Workers: workers, Duration: fn})
			if err != nil {
				t.Fatalf("trial %d workers %d: Run() error = %v", trial, workers, err)
			}
			checkSchedule(t, g, fn, res)

			if res.Makespan < res.CriticalPath {
				t.Errorf("trial %d workers %d: makespan %d below critical path %d", trial, workers, res.Makespan, res.CriticalPath)
			}
			if workers == 1 && res.Makespan != sum {
				t.Errorf("trial %d: single worker makespan %d, want sum %d", trial, res.Makespan, sum)
			}
			// Greedy list scheduling bound.
			if workers*res.Makespan > sum+(workers-1)*res.CriticalPath {
				t.Errorf("trial %d workers %d: makespan %d exceeds list-scheduling bound", trial, workers, res.Makespan)
			}
		}
	}
}

// checkSchedule verifies that every task runs once for its full duration,
// after all of its prerequisites, and that no worker runs two tasks at once.
func checkSchedule(t *testing.T, g *dag.DAG, fn duration.Func, res *Result) {
	t.Helper()

	if len(res.Timeline) != g.NodeCount() || len(res.Order) != g.NodeCount() {
		t.Fatalf("schedule covers %d/%d tasks, graph has %d", len(res.Timeline), len(res.Order), g.NodeCount())
	}
	byTask := make(map[string]Assignment, len(res.Timeline))
	for _, a := range res.Timeline {
		if _, dup := byTask[a.Task]; dup {
			t.Fatalf("task %s scheduled twice", a.Task)
		}
		byTask[a.Task] = a
		if a.Ticks() != fn(a.Task) {
			t.Errorf("task %s ran %d ticks, want %d", a.Task, a.Ticks(), fn(a.Task))
		}
		if a.End > res.Makespan {
			t.Errorf("task %s ends at %d after makespan %d", a.Task, a.End, res.Makespan)
		}
	}
	for _, e := range g.Edges() {
		if byTask[e.From].End > byTask[e.To].Start {
			t.Errorf("%s started at %d before prerequisite %s finished at %d",
				e.To, byTask[e.To].Start, e.From, byTask[e.From].End)
		}
	}
	for w, row := range res.ByWorker() {
		for i := 1; i < len(row); i++ {
			if row[i].Start < row[i-1].End {
				t.Errorf("worker %d overlaps %s and %s", w, row[i-1].Task, row[i].Task)
			}
		}
	}
}
