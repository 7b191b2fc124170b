// Package sequence computes a single valid completion order for a dependency
// graph.
//
// [Order] repeatedly takes the ready task with the smallest identity,
// appends it to the output and resolves it. Identity order is the only rule
// applied when several tasks are ready at once, so the result is fully
// deterministic:
//
//	g, _ := dag.Build(edges)
//	order, err := sequence.Order(g)
//
// The input graph is never modified; Order consumes its own clone.
package sequence

import (
	"slices"

	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/dag/transform"
)

// Order returns every task of g exactly once such that for each edge a → b,
// a comes before b. When several tasks are ready, the smallest identity goes
// first.
//
// Order fails with a CYCLIC_GRAPH error, and returns no partial order, when
// the ready queue runs dry while tasks remain.
func Order(g *dag.DAG) ([]string, error) {
	work := g.Clone()
	order := make([]string, 0, work.NodeCount())

	ready := dag.NewReadyQueue(nil)
	ready.Push(work.ReadySet()...)

	for {
		id, ok := ready.Pop()
		if !ok {
			break
		}
		order = append(order, id)
		ready.Push(work.Resolve(id)...)
	}

	if !work.IsEmpty() {
		return nil, dag.CycleError(work)
	}
	return order, nil
}

// Stages groups tasks into parallel waves: stage i holds the tasks whose
// longest prerequisite chain has i edges, each stage sorted by identity.
// It fails like [Order] on cyclic input.
func Stages(g *dag.DAG) ([][]string, error) {
	levels := transform.Levels(g)
	if len(levels) != g.NodeCount() {
		work := g.Clone()
		stripResolvable(work)
		return nil, dag.CycleError(work)
	}

	var stages [][]string
	for _, id := range g.Nodes() {
		lvl := levels[id]
		for len(stages) <= lvl {
			stages = append(stages, nil)
		}
		stages[lvl] = append(stages[lvl], id)
	}
	for _, s := range stages {
		slices.Sort(s)
	}
	return stages, nil
}

// stripResolvable resolves everything reachable without crossing a cycle so
// that only the stuck tasks remain.
func stripResolvable(g *dag.DAG) {
	for ready := g.ReadySet(); len(ready) > 0; ready = g.ReadySet() {
		for _, id := range ready {
			g.Resolve(id)
		}
	}
}
