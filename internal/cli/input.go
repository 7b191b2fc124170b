package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/duration"
	pkgio "github.com/matzehuels/stepflow/pkg/io"
	"github.com/matzehuels/stepflow/pkg/parse"
)

// stdinPath selects standard input as the graph source.
const stdinPath = "-"

// input is a loaded graph plus everything the reader reported about it.
type input struct {
	doc     *pkgio.Document
	skipped []parse.Skipped
}

func (in *input) graph() *dag.DAG { return in.doc.Graph }

// durations layers the document's per-task durations over the configured
// model.
func (in *input) durations(fallback duration.Func) duration.Func {
	return in.doc.DurationFunc(fallback)
}

// inputFlags holds the flags shared by every command that reads a graph.
type inputFlags struct {
	lenient bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.lenient, "lenient", false, "skip malformed constraint lines instead of failing")
}

// load reads the graph at path. Constraint text (".txt", no extension or
// stdin) goes through the line parser so skipped lines can be reported;
// JSON and YAML documents are decoded by pkg/io.
func (c *CLI) load(cmd *cobra.Command, path string, f inputFlags) (*input, error) {
	opts := parse.Options{Lenient: f.lenient || c.Config.Input.Lenient}

	var in *input
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case path == stdinPath:
		res, err := parse.Parse(cmd.InOrStdin(), opts)
		if err != nil {
			return nil, err
		}
		in = &input{doc: &pkgio.Document{Graph: res.Graph}, skipped: res.Skipped}
	case ext == ".txt" || ext == "":
		res, err := parse.ParseFile(path, opts)
		if err != nil {
			return nil, err
		}
		in = &input{doc: &pkgio.Document{Graph: res.Graph}, skipped: res.Skipped}
	default:
		doc, err := pkgio.ImportFile(path, opts)
		if err != nil {
			return nil, err
		}
		in = &input{doc: doc}
	}

	for _, s := range in.skipped {
		c.Logger.Warn("skipped line", "line", s.Line, "text", s.Text, "err", s.Err)
	}
	c.Logger.Debug("loaded graph", "path", path, "tasks", in.doc.Graph.NodeCount(), "edges", in.doc.Graph.EdgeCount())
	return in, nil
}
