package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/dag/transform"
)

// Options configures diagram generation.
type Options struct {
	// Highlight marks tasks (and edges between two marked tasks) in the
	// accent colour, typically the critical chain.
	Highlight map[string]bool
	// Labels overrides the label of individual tasks. Tasks without an entry
	// are labelled with their identity.
	Labels map[string]string
	// Stages pins tasks of the same dependency wave to one rank.
	Stages bool
}

const accent = "#d9534f"

// ToDOT converts a graph to Graphviz DOT source. Output is deterministic:
// tasks and edges are emitted in identity order.
func ToDOT(g *dag.DAG, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(nodeAttrs(id, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if opts.Highlight[e.From] && opts.Highlight[e.To] {
			fmt.Fprintf(&buf, "  %q -> %q [color=%q, penwidth=2];\n", e.From, e.To, accent)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	if opts.Stages {
		writeStages(&buf, g)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(id string, opts Options) []string {
	label := id
	if l, ok := opts.Labels[id]; ok {
		label = l
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if opts.Highlight[id] {
		attrs = append(attrs, fmt.Sprintf("color=%q", accent), "penwidth=2")
	}
	return attrs
}

func writeStages(buf *bytes.Buffer, g *dag.DAG) {
	levels := transform.Levels(g)
	byLevel := make(map[int][]string)
	for id, l := range levels {
		byLevel[l] = append(byLevel[l], id)
	}

	keys := make([]int, 0, len(byLevel))
	for l := range byLevel {
		keys = append(keys, l)
	}
	slices.Sort(keys)

	buf.WriteString("\n")
	for _, l := range keys {
		ids := byLevel[l]
		slices.Sort(ids)
		quoted := make([]string, len(ids))
		for i, id := range ids {
			quoted[i] = strconv.Quote(id)
		}
		fmt.Fprintf(buf, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
	}
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, src string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// viewBox so the SVG scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
