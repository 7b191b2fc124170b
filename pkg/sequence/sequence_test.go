package sequence

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matzehuels/stepflow/pkg/dag"
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

func TestOrder_Example(t *testing.T) {
	g := mustBuild(t, example)

	got, err := Order(g)
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	if want := []string{"C", "A", "B", "D", "F", "E"}; !slices.Equal(got, want) {
		t.Errorf("Order() = %v, want %v", got, want)
	}
	if g.NodeCount() != 6 {
		t.Errorf("Order() consumed the input graph: %d nodes left", g.NodeCount())
	}
}

func TestOrder_Empty(t *testing.T) {
	got, err := Order(dag.New())
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Order() = %v, want empty", got)
	}
}

func TestOrder_IndependentTasksSortByIdentity(t *testing.T) {
	g := dag.New()
	for _, id := range []string{"delta", "alpha", "charlie", "bravo"} {
		_ = g.AddNode(id)
	}

	got, err := Order(g)
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	if want := []string{"alpha", "bravo", "charlie", "delta"}; !slices.Equal(got, want) {
		t.Errorf("Order() = %v, want %v", got, want)
	}
}

func TestOrder_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 50; i++ {
		edges := randomDAG(r, 3+r.IntN(20), 0.25)
		g := mustBuild(t, edges)

		got, err := Order(g)
		if err != nil {
			t.Fatalf("graph %d: Order() error = %v", i, err)
		}

		// Completeness: every node exactly once.
		if len(got) != g.NodeCount() {
			t.Fatalf("graph %d: len(order) = %d, want %d", i, len(got), g.NodeCount())
		}
		sorted := slices.Sorted(slices.Values(got))
		if !slices.Equal(sorted, g.Nodes()) {
			t.Fatalf("graph %d: order %v is not a permutation of %v", i, got, g.Nodes())
		}

		// Validity: every edge points forward.
		pos := dag.PosMap(got)
		for _, e := range g.Edges() {
			if pos[e.From] >= pos[e.To] {
				t.Errorf("graph %d: edge %s -> %s violated by order %v", i, e.From, e.To, got)
			}
		}

		// Determinism.
		again, _ := Order(mustBuild(t, edges))
		if !slices.Equal(got, again) {
			t.Errorf("graph %d: Order() not deterministic: %v vs %v", i, got, again)
		}
	}
}

func TestOrder_Cycle(t *testing.T) {
	tests := []struct {
		name  string
		edges []dag.Edge
	}{
		{"TwoCycle", []dag.Edge{{From: "A", To: "B"}, {From: "B", To: "A"}}},
		{"CycleBehindReadyWork", []dag.Edge{
			{From: "A", To: "B"},
			{From: "B", To: "C"},
			{From: "C", To: "D"},
			{From: "D", To: "B"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Order(mustBuild(t, tt.edges))
			if !apperr.Is(err, apperr.ErrCodeCyclicGraph) {
				t.Fatalf("Order() error = %v, want CYCLIC_GRAPH", err)
			}
			if got != nil {
				t.Errorf("Order() returned partial order %v", got)
			}
		})
	}
}

func TestStages(t *testing.T) {
	got, err := Stages(mustBuild(t, example))
	if err != nil {
		t.Fatalf("Stages() error = %v", err)
	}

	want := [][]string{{"C"}, {"A", "F"}, {"B", "D"}, {"E"}}
	if len(got) != len(want) {
		t.Fatalf("Stages() = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("stage %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStages_CycleNamesOnlyStuckTasks(t *testing.T) {
	g := mustBuild(t, []dag.Edge{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "C", To: "B"},
	})

	_, err := Stages(g)
	if !apperr.Is(err, apperr.ErrCodeCyclicGraph) {
		t.Fatalf("Stages() error = %v, want CYCLIC_GRAPH", err)
	}
	if want := "2 tasks can never become ready: [B C]"; apperr.UserMessage(err) != want {
		t.Errorf("message = %q, want %q", apperr.UserMessage(err), want)
	}
}
