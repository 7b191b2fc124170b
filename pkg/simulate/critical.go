package simulate

import (
	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/duration"
)

// CriticalPaths returns the remaining critical-path length of every task in g:
// its own duration plus the largest value among its successors.
//
// Tasks are visited in reverse topological order starting from the sinks, so
// each value is computed exactly once. A task on or upstream of a cycle is
// never reached; in that case CriticalPaths returns a CYCLIC_GRAPH error.
func CriticalPaths(g *dag.DAG, fn duration.Func) (map[string]int, error) {
	pending := make(map[string]int, g.NodeCount())
	var stack []string
	for _, id := range g.Nodes() {
		n := g.OutDegree(id)
		pending[id] = n
		if n == 0 {
			stack = append(stack, id)
		}
	}

	cp := make(map[string]int, g.NodeCount())
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		longest := 0
		for _, s := range g.Successors(id) {
			longest = max(longest, cp[s])
		}
		cp[id] = fn(id) + longest

		for _, p := range g.Predecessors(id) {
			pending[p]--
			if pending[p] == 0 {
				stack = append(stack, p)
			}
		}
	}

	if len(cp) != g.NodeCount() {
		stuck := dag.New()
		for _, id := range g.Nodes() {
			if _, ok := cp[id]; !ok {
				_ = stuck.AddNode(id)
			}
		}
		return nil, dag.CycleError(stuck)
	}
	return cp, nil
}

// CriticalPathLength returns the longest duration-weighted chain in g, a lower
// bound on the makespan for any number of workers. An empty graph has length 0.
func CriticalPathLength(g *dag.DAG, fn duration.Func) (int, error) {
	cp, err := CriticalPaths(g, fn)
	if err != nil {
		return 0, err
	}
	longest := 0
	for _, v := range cp {
		longest = max(longest, v)
	}
	return longest, nil
}

// CriticalChain returns one longest duration-weighted chain of tasks, from a
// source to a sink. Among equally long chains the one with the smaller
// identities wins.
func CriticalChain(g *dag.DAG, fn duration.Func) ([]string, error) {
	cp, err := CriticalPaths(g, fn)
	if err != nil {
		return nil, err
	}

	next := ""
	for _, id := range g.Sources() {
		if next == "" || cp[id] > cp[next] {
			next = id
		}
	}

	var chain []string
	for next != "" {
		chain = append(chain, next)
		cur := next
		next = ""
		for _, s := range g.Successors(cur) {
			if cp[s] == cp[cur]-fn(cur) && (next == "" || s < next) {
				next = s
			}
		}
	}
	return chain, nil
}
