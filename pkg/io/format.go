package io

import (
	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/duration"
	apperr "github.com/matzehuels/stepflow/pkg/errors"
)

// Document is a graph together with optional per-task durations.
type Document struct {
	Graph     *dag.DAG
	Durations map[string]int
}

// DurationFunc returns a duration function that prefers the document's
// durations and falls back to fallback for tasks without one.
func (d *Document) DurationFunc(fallback duration.Func) duration.Func {
	if len(d.Durations) == 0 {
		return fallback
	}
	return duration.Table(d.Durations, fallback)
}

type graph struct {
	Tasks []task `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	Edges []edge `json:"edges" yaml:"edges"`
}

type task struct {
	ID       string `json:"id" yaml:"id"`
	Duration int    `json:"duration,omitempty" yaml:"duration,omitempty"`
}

type edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

func (data *graph) toDocument() (*Document, error) {
	doc := &Document{Graph: dag.New()}
	for i, t := range data.Tasks {
		if err := apperr.ValidateTaskID(t.ID); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeMalformedEdge, err, "task %d", i)
		}
		if doc.Graph.Has(t.ID) {
			return nil, apperr.Wrap(apperr.ErrCodeMalformedEdge, dag.ErrDuplicateNodeID, "task %q listed twice", t.ID)
		}
		_ = doc.Graph.AddNode(t.ID)
		if t.Duration != 0 {
			if doc.Durations == nil {
				doc.Durations = make(map[string]int)
			}
			doc.Durations[t.ID] = t.Duration
		}
	}
	for i, e := range data.Edges {
		if err := apperr.ValidateEdge(e.From, e.To); err != nil {
			return nil, apperr.Wrap(apperr.ErrCodeMalformedEdge, err, "edge %d (%s -> %s)", i, e.From, e.To)
		}
		for _, id := range []string{e.From, e.To} {
			if !doc.Graph.Has(id) {
				_ = doc.Graph.AddNode(id)
			}
		}
		_ = doc.Graph.AddEdge(e.From, e.To)
	}
	return doc, nil
}

func fromDocument(doc *Document) graph {
	g := doc.Graph
	out := graph{Edges: make([]edge, 0, g.EdgeCount())}
	for _, id := range g.Nodes() {
		d := doc.Durations[id]
		if d != 0 || (g.InDegree(id) == 0 && g.OutDegree(id) == 0) {
			out.Tasks = append(out.Tasks, task{ID: id, Duration: d})
		}
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, edge{From: e.From, To: e.To})
	}
	return out
}
