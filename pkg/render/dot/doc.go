// Package dot renders task graphs as Graphviz node-link diagrams.
//
// # Usage
//
// Convert a graph to DOT source, then render to SVG:
//
//	src := dot.ToDOT(g, dot.Options{Highlight: critical})
//	svg, err := dot.RenderSVG(ctx, src)
//
// The generated DOT uses left-to-right layout (rankdir=LR) so a chain of
// prerequisites reads in completion order. With [Options.Stages] set, tasks
// that can run in the same wave are pinned to the same rank.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is required.
package dot
