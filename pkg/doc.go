// Package pkg provides the libraries behind stepflow, a dependency-constrained
// task scheduler.
//
// # Overview
//
// Given tasks with precedence constraints and a pool of identical workers,
// stepflow computes a valid completion order and simulates how long the work
// takes when up to N tasks run at once. The pkg directory is organized into:
//
//  1. Core - [dag] (the graph), [sequence] (completion order and stages),
//     [simulate] (worker-pool simulation and critical paths), [duration]
//  2. Input/output - [parse] (constraint lines), [io] (JSON/YAML documents),
//     [render/dot], [render/gantt]
//  3. Infrastructure - [cache], [runstore], [config], [observability]
//  4. Orchestration - [planner], shared by the CLI and the HTTP API
//
// # Architecture
//
// The typical data flow:
//
//	constraints file / JSON / YAML
//	         ↓
//	    [parse] or [io] (build the graph)
//	         ↓
//	    [planner] (cache lookup, run history)
//	         ↓
//	    [sequence] + [simulate] (order, stages, schedule)
//	         ↓
//	    text / JSON / DOT / SVG output
//
// # Quick Start
//
//	res, err := parse.ParseString(input, parse.Options{})
//	if err != nil {
//	    return err
//	}
//	order, err := sequence.Order(res.Graph)
//	schedule, err := simulate.Run(res.Graph, simulate.Options{
//	    Workers:  5,
//	    Duration: duration.Letter(60),
//	})
//	fmt.Println(order, schedule.Makespan)
//
// The core packages never log and never touch the filesystem; the
// infrastructure packages are optional and injected into the planner.
package pkg
