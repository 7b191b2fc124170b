// Package transform provides graph transformations around the scheduling
// core.
//
// # Stage Levels
//
// [Levels] assigns each task the length of its longest predecessor chain.
// Tasks that share a level can run side by side once their level starts, so
// levels are a convenient way to report the parallel "waves" of a plan. The
// sequencer uses them for [sequence.Stages].
//
// # Cycle Breaking
//
// The sequencer and the simulator reject cyclic input. Callers that would
// rather repair a graph than reject it can run [BreakCycles] first: it
// removes every back edge found by a depth-first search and returns the
// removed edges so they can be reported. Nothing in the core calls it.
//
// [sequence.Stages]: github.com/matzehuels/stepflow/pkg/sequence
package transform
