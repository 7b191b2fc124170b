// Package simulate runs a dependency graph on a fixed pool of identical
// workers in discrete time.
//
// Each task occupies one worker for the number of ticks its [duration.Func]
// reports. A tick has three phases:
//
//  1. Dispatch: every idle worker, in slot order, takes the ready task with
//     the longest remaining critical path (ties go to the smaller identity).
//  2. Advance: the clock moves forward by one.
//  3. Complete: every busy worker, in slot order, counts down; a worker that
//     reaches zero resolves its task, queues the newly ready successors and
//     goes idle.
//
// The makespan is the clock value once every task has completed. The
// remaining critical path of a task is its own duration plus the longest
// critical path among its successors; it is computed once per task before the
// first tick, so the ordering never changes while the simulation runs.
//
// Cyclic graphs are rejected before any tick runs.
package simulate
