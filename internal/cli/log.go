// Package cli implements the stepflow command-line interface.
//
// Commands read a task graph from a constraints file (one "Step X must be
// finished before step Y can begin." line per edge, or "X -> Y"), a JSON or
// YAML graph document, or standard input when the path is "-".
//
// # Commands
//
//   - order: print a valid completion order
//   - simulate: schedule the tasks on a worker pool and print the makespan
//   - plan: order and schedule through the cache and run history
//   - export: write the graph as JSON, YAML, DOT or SVG
//   - replay: step through a simulation interactively
//   - serve: run the HTTP API
//   - cache, runs: manage the result cache and run history
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging; otherwise the
// level comes from the config file. The logger lives on the CLI and is
// handed to the planner and the HTTP server.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Simulated 6 tasks (1ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
