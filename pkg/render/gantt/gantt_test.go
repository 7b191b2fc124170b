package gantt

import (
	"slices"
	"testing"

	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/duration"
	"github.com/matzehuels/stepflow/pkg/simulate"
)

func exampleResult(t *testing.T) *simulate.Result {
	t.Helper()
	g, err := dag.Build([]dag.Edge{
		{From: "C", To: "A"},
		{From: "C", To: "F"},
		{From: "A", To: "B"},
		{From: "A", To: "D"},
		{From: "B", To: "E"},
		{From: "D", To: "E"},
		{From: "F", To: "E"},
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := simulate.Run(g, simulate.Options{Workers: 2, Duration: duration.Letter(0)})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestRender(t *testing.T) {
	res := exampleResult(t)

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "FullResolution",
			opts: Options{},
			want: "    0         10\n" +
				"w0  C==F=====.E====\n" +
				"w1  ...AD===B=.....\n",
		},
		{
			name: "Scaled",
			opts: Options{Scale: 2},
			want: "    0\n" +
				"w0  CF===E==\n" +
				"w1  .AD=B...\n",
		},
		{
			name: "FitWidth",
			opts: Options{Width: 8},
			want: "    0\n" +
				"w0  CF===E==\n" +
				"w1  .AD=B...\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(res, tt.opts); got != tt.want {
				t.Errorf("Render() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestRender_Empty(t *testing.T) {
	if got := Render(&simulate.Result{Workers: 2}, Options{}); got != "" {
		t.Errorf("Render(empty) = %q, want empty", got)
	}
}

func TestRender_PoolLargerThanGraph(t *testing.T) {
	res := &simulate.Result{
		Makespan: 2,
		Workers:  1 << 16,
		Order:    []string{"A"},
		Timeline: []simulate.Assignment{{Task: "A", Worker: 0, Start: 0, End: 2}},
	}
	if got, want := Render(res, Options{}), "    0\nw0  A=\n"; got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if got := len(Frame(res, 0)); got != 1 {
		t.Errorf("len(Frame()) = %d, want 1", got)
	}
}

func TestFrame(t *testing.T) {
	res := exampleResult(t)

	got := Frame(res, 5)
	want := []Slot{
		{Worker: 0, Task: "F", Elapsed: 2, Total: 6},
		{Worker: 1, Task: "D", Elapsed: 1, Total: 4},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Frame(5) = %+v, want %+v", got, want)
	}

	for _, s := range Frame(res, res.Makespan) {
		if s.Task != "" {
			t.Errorf("Frame(makespan) worker %d busy with %s", s.Worker, s.Task)
		}
	}
}

func TestCompleted(t *testing.T) {
	res := exampleResult(t)

	if got := Completed(res, 8); !slices.Equal(got, []string{"C", "A", "D"}) {
		t.Errorf("Completed(8) = %v, want [C A D]", got)
	}
	if got := Completed(res, 0); len(got) != 0 {
		t.Errorf("Completed(0) = %v, want none", got)
	}
	if got := Completed(res, res.Makespan); len(got) != 6 {
		t.Errorf("Completed(makespan) = %v, want all 6", got)
	}
}
