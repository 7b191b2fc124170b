package transform

import "github.com/matzehuels/stepflow/pkg/dag"

// Levels assigns every task the number of edges on its longest chain of
// prerequisites. Tasks with no prerequisites are at level 0 and every task is
// at least one level below each of its predecessors.
//
// # Algorithm
//
// Levels performs a topological traversal (Kahn's algorithm):
//  1. Initialize all ready tasks (in-degree 0) at level 0 and add to queue
//  2. Process queue: for each task, push its successors to max(level + 1)
//  3. Decrement in-degree counters; add newly zero-degree tasks to queue
//  4. Repeat until queue is empty
//
// # Cycles
//
// Tasks on or behind a cycle never reach zero in-degree and are left out of
// the result. Compare len(result) with g.NodeCount() to detect this.
//
// The graph is not modified. Time complexity is O(V + E).
func Levels(g *dag.DAG) map[string]int {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	levels := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, id := range nodes {
		degree := g.InDegree(id)
		inDegree[id] = degree
		if degree == 0 {
			queue = append(queue, id)
			levels[id] = 0
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range g.Successors(curr) {
			if level := levels[curr] + 1; level > levels[next] {
				levels[next] = level
			}
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	for id := range levels {
		if inDegree[id] != 0 {
			delete(levels, id)
		}
	}
	return levels
}
