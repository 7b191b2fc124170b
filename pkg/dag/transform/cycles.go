package transform

import "github.com/matzehuels/stepflow/pkg/dag"

// BreakCycles removes the back edges found by a depth-first search so that
// the graph becomes acyclic, and returns the removed edges. Traversal visits
// tasks in ascending identity order, so the same input always loses the same
// edges. An acyclic graph is left untouched and nil is returned.
func BreakCycles(g *dag.DAG) []dag.Edge {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var backEdges []dag.Edge

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, next := range g.Successors(node) {
			switch color[next] {
			case white:
				dfs(next)
			case gray:
				backEdges = append(backEdges, dag.Edge{From: node, To: next})
			}
		}
		color[node] = black
	}

	for _, id := range g.Sources() {
		if color[id] == white {
			dfs(id)
		}
	}

	for _, id := range g.Nodes() {
		if color[id] == white {
			dfs(id)
		}
	}

	for _, e := range backEdges {
		g.RemoveEdge(e.From, e.To)
	}
	return backEdges
}
