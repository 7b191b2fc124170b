package simulate

import (
	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/duration"
	apperr "github.com/matzehuels/stepflow/pkg/errors"
)

// Options configures a simulation run.
type Options struct {
	// Workers is the pool size, between 1 and errors.MaxWorkers.
	Workers int
	// Duration reports how many ticks each task takes. Required.
	Duration duration.Func
	// Trace, when set, is called for every dispatch and completion in the
	// order they happen.
	Trace func(Event)
}

// EventKind distinguishes the two things a worker can do during a tick.
type EventKind int

const (
	Dispatched EventKind = iota
	Completed
)

func (k EventKind) String() string {
	if k == Completed {
		return "completed"
	}
	return "dispatched"
}

// Event records a worker picking up or finishing a task at a given tick.
type Event struct {
	Kind   EventKind
	Tick   int
	Worker int
	Task   string
}

// Simulator holds a frozen copy of the graph together with the priority of
// every task. Run may be called any number of times and always produces the
// same result.
type Simulator struct {
	graph    *dag.DAG
	opts     Options
	priority map[string]int
	critical int
}

// New validates the options against g and precomputes task priorities.
//
// It fails with INVALID_INPUT for a pool smaller than one worker or a missing
// duration function, INVALID_DURATION when any task has a non-positive
// duration, and CYCLIC_GRAPH when g contains a cycle. Later changes to g do
// not affect the returned Simulator.
func New(g *dag.DAG, opts Options) (*Simulator, error) {
	if err := apperr.ValidateWorkers(opts.Workers); err != nil {
		return nil, err
	}
	frozen := g.Clone()
	if err := duration.Validate(opts.Duration, frozen.Nodes()); err != nil {
		return nil, err
	}
	if err := frozen.Validate(); err != nil {
		return nil, err
	}
	priority, err := CriticalPaths(frozen, opts.Duration)
	if err != nil {
		return nil, err
	}

	s := &Simulator{graph: frozen, opts: opts, priority: priority}
	for _, v := range priority {
		s.critical = max(s.critical, v)
	}
	return s, nil
}

// Run is shorthand for New followed by [Simulator.Run].
func Run(g *dag.DAG, opts Options) (*Result, error) {
	s, err := New(g, opts)
	if err != nil {
		return nil, err
	}
	return s.Run()
}

// Priority returns the remaining critical-path length of a task, or 0 for an
// unknown one.
func (s *Simulator) Priority(task string) int { return s.priority[task] }

// CriticalPath returns the makespan lower bound for the frozen graph.
func (s *Simulator) CriticalPath() int { return s.critical }

type worker struct {
	task      string
	remaining int
	slot      int // index into Result.Timeline
}

func (w *worker) idle() bool { return w.remaining == 0 }

// Run simulates the pool until every task has completed and returns the
// schedule. It only fails if no worker can make progress while tasks remain,
// which New already rules out for the frozen graph.
func (s *Simulator) Run() (*Result, error) {
	work := s.graph.Clone()
	n := work.NodeCount()
	res := &Result{
		Workers:      s.opts.Workers,
		CriticalPath: s.critical,
		Order:        make([]string, 0, n),
		Timeline:     make([]Assignment, 0, n),
	}

	ready := dag.NewReadyQueue(s.Priority)
	ready.Push(work.ReadySet()...)
	// At most n workers can ever hold a task at once.
	workers := make([]worker, min(s.opts.Workers, n))

	clock := 0
	for !work.IsEmpty() {
		step := 0
		for i := range workers {
			w := &workers[i]
			if w.idle() {
				id, ok := ready.Pop()
				if !ok {
					continue
				}
				*w = worker{task: id, remaining: s.opts.Duration(id), slot: len(res.Timeline)}
				res.Timeline = append(res.Timeline, Assignment{Task: id, Worker: i, Start: clock})
				s.trace(Dispatched, clock, i, id)
			}
			if step == 0 || w.remaining < step {
				step = w.remaining
			}
		}
		if step == 0 {
			return nil, dag.CycleError(work)
		}

		// Nothing becomes ready before the next completion, so skip the
		// idle ticks in between.
		clock += step

		for i := range workers {
			w := &workers[i]
			if w.idle() {
				continue
			}
			w.remaining -= step
			if w.remaining > 0 {
				continue
			}
			ready.Push(work.Resolve(w.task)...)
			res.Timeline[w.slot].End = clock
			res.Order = append(res.Order, w.task)
			s.trace(Completed, clock, i, w.task)
			*w = worker{}
		}
	}

	res.Makespan = clock
	return res, nil
}

func (s *Simulator) trace(kind EventKind, tick, worker int, task string) {
	if s.opts.Trace != nil {
		s.opts.Trace(Event{Kind: kind, Tick: tick, Worker: worker, Task: task})
	}
}
