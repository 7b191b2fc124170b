// Package dag provides the dependency graph consumed by the sequencer and the
// worker-pool simulator.
//
// # Overview
//
// A [DAG] stores task identities together with their adjacency in both
// directions: the successors of a task are the tasks that require it, and its
// predecessors are the tasks it requires. An edge From → To means To cannot
// start until From has completed.
//
// # Basic Usage
//
// Build a graph from a flat edge list with [Build]. Both endpoints become
// nodes, duplicate edges are ignored and self-edges are rejected:
//
//	g, err := dag.Build([]dag.Edge{
//	    {From: "C", To: "A"},
//	    {From: "C", To: "F"},
//	})
//
// # Consumption
//
// Graphs are consumed destructively. [DAG.ReadySet] lists tasks with no
// remaining predecessors, and [DAG.Resolve] removes a finished task and
// returns the successors it unblocked. A run is complete when
// [DAG.IsEmpty] holds. Because consumers mutate the graph, every algorithm
// must work on its own [DAG.Clone].
//
// Resolving a task that still has predecessors is a programming error and
// panics.
//
// # Ready Queue
//
// [ReadyQueue] is the priority queue both algorithms use for ready tasks.
// Tasks are ranked by an optional [RankFunc] and ties are broken by ascending
// identity, which keeps every run deterministic.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Clone a graph before handing
// it to another goroutine.
//
// # Related Packages
//
// The [transform] subpackage assigns stage levels and can break cycles for
// callers that prefer repairing input over rejecting it.
//
// [transform]: github.com/matzehuels/stepflow/pkg/dag/transform
package dag
