// Package render groups the output formats for graphs and schedules.
//
// # Subpackages
//
//   - [dot]: Graphviz DOT source for a task graph, with the critical chain
//     highlighted and tasks of one stage aligned; SVG via go-graphviz.
//   - [gantt]: plain-text Gantt charts of a simulation result, plus the
//     per-tick worker states used by the replay TUI.
//
// Both only read their input: graphs are never mutated and results can be
// rendered any number of times.
//
// [dot]: https://pkg.go.dev/github.com/matzehuels/stepflow/pkg/render/dot
// [gantt]: https://pkg.go.dev/github.com/matzehuels/stepflow/pkg/render/gantt
package render
