// Package parse reads dependency constraints from text, one per line.
//
// Three line forms are recognised:
//
//	Step C must be finished before step A can begin.
//	C -> A            (also "C → A"; chains like "C -> A -> B" are allowed)
//	A: C F            (A requires C and F; "A:" alone declares A)
//
// Blank lines and lines starting with '#' are ignored. Anything else is a
// MALFORMED_EDGE error carrying the 1-based line number. In lenient mode the
// offending line is recorded in [Result.Skipped] and parsing continues.
package parse

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/matzehuels/stepflow/pkg/dag"
	apperr "github.com/matzehuels/stepflow/pkg/errors"
)

var stepRE = regexp.MustCompile(`(?i)^step\s+(\S+)\s+must\s+be\s+finished\s+before\s+step\s+(\S+)\s+can\s+begin\.?$`)

// Options controls how malformed input is handled.
type Options struct {
	// Lenient skips malformed lines instead of failing.
	Lenient bool
}

// Skipped describes a line dropped in lenient mode.
type Skipped struct {
	Line int
	Text string
	Err  error
}

// Result holds the parsed graph together with the raw edges in input order.
type Result struct {
	Graph   *dag.DAG
	Edges   []dag.Edge
	Skipped []Skipped
}

// Parse reads constraints from r.
func Parse(r io.Reader, opts Options) (*Result, error) {
	res := &Result{Graph: dag.New()}

	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		tasks, edges, err := parseLine(line)
		if err == nil {
			err = res.add(tasks, edges)
		}
		if err != nil {
			err = apperr.Wrap(apperr.ErrCodeMalformedEdge, &apperr.LineError{Line: n, Text: line}, "line %d: %s", n, apperr.UserMessage(err))
			if !opts.Lenient {
				return nil, err
			}
			res.Skipped = append(res.Skipped, Skipped{Line: n, Text: line, Err: err})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "read constraints")
	}
	return res, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string, opts Options) (*Result, error) {
	return Parse(strings.NewReader(s), opts)
}

// ParseFile opens path and parses it.
func ParseFile(path string, opts Options) (*Result, error) {
	if err := apperr.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return Parse(f, opts)
}

// add validates every identity on a line before touching the graph, so a
// rejected line leaves no partial edges behind.
func (r *Result) add(tasks []string, edges []dag.Edge) error {
	for _, id := range tasks {
		if err := apperr.ValidateTaskID(id); err != nil {
			return err
		}
	}
	for _, e := range edges {
		if err := apperr.ValidateEdge(e.From, e.To); err != nil {
			return err
		}
	}

	for _, id := range tasks {
		if !r.Graph.Has(id) {
			_ = r.Graph.AddNode(id)
		}
	}
	for _, e := range edges {
		for _, id := range []string{e.From, e.To} {
			if !r.Graph.Has(id) {
				_ = r.Graph.AddNode(id)
			}
		}
		_ = r.Graph.AddEdge(e.From, e.To)
		r.Edges = append(r.Edges, e)
	}
	return nil
}

// parseLine returns the tasks a line declares and the edges it implies.
func parseLine(line string) ([]string, []dag.Edge, error) {
	if m := stepRE.FindStringSubmatch(line); m != nil {
		return nil, []dag.Edge{{From: m[1], To: m[2]}}, nil
	}

	if normalized := strings.ReplaceAll(line, "→", "->"); strings.Contains(normalized, "->") {
		parts := strings.Split(normalized, "->")
		edges := make([]dag.Edge, 0, len(parts)-1)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] == "" {
				return nil, nil, apperr.New(apperr.ErrCodeMalformedEdge, "missing task around arrow")
			}
			if i > 0 {
				edges = append(edges, dag.Edge{From: parts[i-1], To: parts[i]})
			}
		}
		return nil, edges, nil
	}

	if task, prereqs, ok := strings.Cut(line, ":"); ok {
		task = strings.TrimSpace(task)
		fields := strings.Fields(prereqs)
		edges := make([]dag.Edge, 0, len(fields))
		for _, p := range fields {
			edges = append(edges, dag.Edge{From: p, To: task})
		}
		return []string{task}, edges, nil
	}

	return nil, nil, apperr.New(apperr.ErrCodeMalformedEdge, "unrecognised constraint")
}
