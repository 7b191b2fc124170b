// Package duration provides the task-duration capabilities injected into the
// worker-pool simulator.
//
// A [Func] maps a task identity to the number of ticks the task occupies a
// worker. The simulator treats it as opaque: it must be pure, total and
// strictly positive for every task it is asked about. [Validate] checks the
// last property up front.
package duration

import (
	"slices"
	"unicode"

	apperr "github.com/matzehuels/stepflow/pkg/errors"
)

// Func returns the number of ticks a task takes once started.
type Func func(task string) int

// Letter returns the reference-domain duration: base + rank + 1, where rank is
// the position of a single-letter identity in the alphabet (A=0, case
// insensitive). With base 60, task A takes 61 ticks and task Z takes 86.
//
// Identities that are not a single ASCII letter get duration 0, which
// [Validate] and the simulator reject.
func Letter(base int) Func {
	return func(task string) int {
		r, ok := singleLetter(task)
		if !ok {
			return 0
		}
		return base + int(r-'A') + 1
	}
}

func singleLetter(task string) (rune, bool) {
	if len(task) != 1 {
		return 0, false
	}
	r := unicode.ToUpper(rune(task[0]))
	if r < 'A' || r > 'Z' {
		return 0, false
	}
	return r, true
}

// Constant returns a Func that gives every task n ticks.
func Constant(n int) Func {
	return func(string) int { return n }
}

// Table looks tasks up in durations and falls back to fallback for unknown
// tasks. The map is copied, so later changes to it do not leak into the Func.
func Table(durations map[string]int, fallback Func) Func {
	table := make(map[string]int, len(durations))
	for k, v := range durations {
		table[k] = v
	}
	return func(task string) int {
		if d, ok := table[task]; ok {
			return d
		}
		if fallback == nil {
			return 0
		}
		return fallback(task)
	}
}

// Max is the longest accepted task duration in ticks.
const Max = 1 << 30

// Validate checks that fn is strictly positive and at most Max for every
// task. Tasks are checked in ascending order so the reported task is
// deterministic.
func Validate(fn Func, tasks []string) error {
	if fn == nil {
		return apperr.New(apperr.ErrCodeInvalidInput, "duration function is required")
	}
	sorted := slices.Sorted(slices.Values(tasks))
	for _, t := range sorted {
		if d := fn(t); d <= 0 {
			return apperr.New(apperr.ErrCodeInvalidDuration, "task %q has non-positive duration %d", t, d)
		} else if d > Max {
			return apperr.New(apperr.ErrCodeInvalidDuration, "task %q duration %d exceeds %d", t, d, Max)
		}
	}
	return nil
}

// Sum returns the total duration of tasks. With a single worker the makespan
// of any acyclic graph equals this sum.
func Sum(fn Func, tasks []string) int {
	total := 0
	for _, t := range tasks {
		total += fn(t)
	}
	return total
}
