package dag

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	apperr "github.com/matzehuels/stepflow/pkg/errors"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the task identity
	// is empty. All tasks must have non-empty identities.
	ErrInvalidNodeID = errors.New("task identity must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a task with the
	// same identity already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate task identity")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From task
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source task")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To task
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target task")

	// ErrSelfEdge is returned by [DAG.AddEdge] when From and To are equal.
	ErrSelfEdge = errors.New("task cannot depend on itself")

	// ErrInconsistentAdjacency is returned by [DAG.Validate] when the
	// successor and predecessor maps are not exact transposes. This
	// indicates graph corruption.
	ErrInconsistentAdjacency = errors.New("successor and predecessor sets disagree")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	// Cycles are detected using depth-first search with white/gray/black
	// coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Edge is a precedence constraint: To cannot start before From completes.
type Edge struct {
	From string // Prerequisite task
	To   string // Dependent task
}

type set map[string]struct{}

// DAG is a dependency graph over task identities with adjacency kept in both
// directions.
//
// A DAG is built once and then consumed destructively by [DAG.Resolve]. Each
// algorithm that consumes a graph must work on its own [DAG.Clone].
//
// The zero value is not usable - use New or Build to create a DAG.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes        set
	successors   map[string]set // task -> tasks that require it
	predecessors map[string]set // task -> tasks it requires
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		nodes:        make(set),
		successors:   make(map[string]set),
		predecessors: make(map[string]set),
	}
}

// Build constructs a DAG from a flat edge list. Both endpoints of every edge
// become nodes, duplicate edges are ignored, and the edge order does not
// affect the result.
//
// Build fails with a MALFORMED_EDGE error if an edge has an empty or invalid
// identity or is a self-edge. Cycles are not rejected here; the consuming
// algorithms report them as CYCLIC_GRAPH.
func Build(edges []Edge) (*DAG, error) {
	g := New()
	for i, e := range edges {
		if err := apperr.ValidateEdge(e.From, e.To); err != nil {
			return nil, fmt.Errorf("edge %d (%s -> %s): %w", i, e.From, e.To, err)
		}
		g.ensure(e.From)
		g.ensure(e.To)
		if err := g.AddEdge(e.From, e.To); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeMalformedEdge, err, "edge %d (%s -> %s)", i, e.From, e.To)
		}
	}
	return g, nil
}

func (d *DAG) ensure(id string) {
	if _, ok := d.nodes[id]; ok {
		return
	}
	d.nodes[id] = struct{}{}
	d.successors[id] = make(set)
	d.predecessors[id] = make(set)
}

// AddNode adds an isolated task. Returns ErrInvalidNodeID if the identity is
// empty, or ErrDuplicateNodeID if it already exists.
func (d *DAG) AddNode(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[id]; exists {
		return ErrDuplicateNodeID
	}
	d.ensure(id)
	return nil
}

// AddEdge records that to requires from. Both tasks must already exist.
// Adding an edge that is already present is a no-op.
func (d *DAG) AddEdge(from, to string) error {
	if _, ok := d.nodes[from]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[to]; !ok {
		return ErrUnknownTargetNode
	}
	if from == to {
		return ErrSelfEdge
	}
	d.successors[from][to] = struct{}{}
	d.predecessors[to][from] = struct{}{}
	return nil
}

// RemoveEdge removes the edge from→to if it exists.
func (d *DAG) RemoveEdge(from, to string) {
	delete(d.successors[from], to)
	delete(d.predecessors[to], from)
}

// Clone returns a deep copy of the graph. Mutating the copy never affects d.
func (d *DAG) Clone() *DAG {
	c := &DAG{
		nodes:        maps.Clone(d.nodes),
		successors:   make(map[string]set, len(d.successors)),
		predecessors: make(map[string]set, len(d.predecessors)),
	}
	for id, s := range d.successors {
		c.successors[id] = maps.Clone(s)
	}
	for id, p := range d.predecessors {
		c.predecessors[id] = maps.Clone(p)
	}
	return c
}

// ReadySet returns every task whose predecessor set is empty, sorted by
// identity. It does not modify the graph.
func (d *DAG) ReadySet() []string {
	var ready []string
	for id := range d.nodes {
		if len(d.predecessors[id]) == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)
	return ready
}

// Resolve removes a completed task and its outgoing edges, and returns the
// successors whose last predecessor it was, sorted by identity.
//
// The task must be present and have no predecessors. Resolving anything else
// means the caller's bookkeeping is broken, so Resolve panics instead of
// returning an error.
func (d *DAG) Resolve(id string) []string {
	if _, ok := d.nodes[id]; !ok {
		panic(fmt.Sprintf("dag: resolve of unknown task %q", id))
	}
	if n := len(d.predecessors[id]); n > 0 {
		panic(fmt.Sprintf("dag: resolve of task %q with %d unresolved predecessors", id, n))
	}

	var ready []string
	for s := range d.successors[id] {
		preds := d.predecessors[s]
		delete(preds, id)
		if len(preds) == 0 {
			ready = append(ready, s)
		}
	}
	delete(d.nodes, id)
	delete(d.successors, id)
	delete(d.predecessors, id)

	slices.Sort(ready)
	return ready
}

// IsEmpty reports whether every task has been resolved.
func (d *DAG) IsEmpty() bool { return len(d.nodes) == 0 }

// Has reports whether the task is present.
func (d *DAG) Has(id string) bool {
	_, ok := d.nodes[id]
	return ok
}

// Nodes returns all task identities in ascending order.
func (d *DAG) Nodes() []string {
	return slices.Sorted(maps.Keys(d.nodes))
}

// Edges returns all edges sorted by (From, To).
func (d *DAG) Edges() []Edge {
	var edges []Edge
	for _, from := range d.Nodes() {
		for _, to := range d.Successors(from) {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// NodeCount returns the number of unresolved tasks.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges.
func (d *DAG) EdgeCount() int {
	n := 0
	for _, s := range d.successors {
		n += len(s)
	}
	return n
}

// Successors returns the tasks that require id, sorted.
// Returns nil if the task has no successors or doesn't exist.
func (d *DAG) Successors(id string) []string {
	if len(d.successors[id]) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(d.successors[id]))
}

// Predecessors returns the tasks id requires, sorted.
// Returns nil if the task has no predecessors or doesn't exist.
func (d *DAG) Predecessors(id string) []string {
	if len(d.predecessors[id]) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(d.predecessors[id]))
}

// OutDegree returns the number of tasks that require id.
func (d *DAG) OutDegree(id string) int { return len(d.successors[id]) }

// InDegree returns the number of tasks id requires.
func (d *DAG) InDegree(id string) int { return len(d.predecessors[id]) }

// Sources returns tasks with no predecessors, sorted. For a fresh graph this
// equals [DAG.ReadySet].
func (d *DAG) Sources() []string { return d.ReadySet() }

// Sinks returns tasks nothing depends on, sorted.
func (d *DAG) Sinks() []string {
	var sinks []string
	for id := range d.nodes {
		if len(d.successors[id]) == 0 {
			sinks = append(sinks, id)
		}
	}
	slices.Sort(sinks)
	return sinks
}

// Validate checks graph integrity and returns nil if valid.
// It verifies two constraints:
//
//  1. The successor and predecessor maps are exact transposes over known nodes
//  2. The graph is acyclic
//
// A cycle is reported as a CYCLIC_GRAPH error wrapping ErrGraphHasCycle.
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	if err := d.validateAdjacency(); err != nil {
		return apperr.Wrap(apperr.ErrCodeInternal, err, "corrupt graph")
	}
	if cycle := d.findCycle(); cycle != nil {
		return apperr.Wrap(apperr.ErrCodeCyclicGraph, ErrGraphHasCycle, "cycle through %v", cycle)
	}
	return nil
}

func (d *DAG) validateAdjacency() error {
	for from, succ := range d.successors {
		if _, ok := d.nodes[from]; !ok {
			return ErrInconsistentAdjacency
		}
		for to := range succ {
			if _, ok := d.predecessors[to][from]; !ok {
				return ErrInconsistentAdjacency
			}
		}
	}
	for to, preds := range d.predecessors {
		if _, ok := d.nodes[to]; !ok {
			return ErrInconsistentAdjacency
		}
		for from := range preds {
			if _, ok := d.successors[from][to]; !ok {
				return ErrInconsistentAdjacency
			}
		}
	}
	return nil
}

// findCycle returns the tasks on one cycle in traversal order, or nil.
// Nodes are visited in sorted order so the reported cycle is deterministic.
func (d *DAG) findCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var stack, cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, next := range d.Successors(id) {
			switch color[next] {
			case white:
				if dfs(next) {
					return true
				}
			case gray:
				start := slices.Index(stack, next)
				cycle = slices.Clone(stack[start:])
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range d.Nodes() {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}

// PosMap creates a position lookup map from an ordered slice of identities.
// It is used to check that an order respects every edge.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// maxReported caps how many stuck tasks a CYCLIC_GRAPH message lists.
const maxReported = 10

// CycleError builds the CYCLIC_GRAPH error for a graph in which no task can
// make progress, naming up to ten of the remaining tasks. The error wraps
// ErrGraphHasCycle.
func CycleError(remaining *DAG) error {
	ids := remaining.Nodes()
	shown := ids
	if len(shown) > maxReported {
		shown = shown[:maxReported]
	}
	msg := fmt.Sprintf("%d tasks can never become ready: %v", len(ids), shown)
	if len(ids) > len(shown) {
		msg += fmt.Sprintf(" and %d more", len(ids)-len(shown))
	}
	return apperr.Wrap(apperr.ErrCodeCyclicGraph, ErrGraphHasCycle, "%s", msg)
}
