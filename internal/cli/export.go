package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stepflow/pkg/dag"
	"github.com/matzehuels/stepflow/pkg/duration"
	apperr "github.com/matzehuels/stepflow/pkg/errors"
	pkgio "github.com/matzehuels/stepflow/pkg/io"
	"github.com/matzehuels/stepflow/pkg/render/dot"
	"github.com/matzehuels/stepflow/pkg/simulate"
)

type exportOpts struct {
	input    inputFlags
	schedule scheduleFlags
	output   string
	stages   bool
	critical bool
}

// exportCommand converts a graph to another format. DOT and SVG output
// highlight the critical chain.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{stages: true, critical: true}

	cmd := &cobra.Command{
		Use:   "export <input>",
		Short: "Export a graph as JSON, YAML, DOT or SVG",
		Long: `Write the graph in <input> to the file given by --output. The format is
chosen by extension: .json, .yaml/.yml, .dot or .svg. Without --output the
DOT source is printed.`,
		Example: `  stepflow export steps.txt -o graph.yaml
  stepflow export steps.txt -o graph.svg --base 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, args[0], opts)
		},
	}

	opts.input.register(cmd)
	opts.schedule.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.json, .yaml, .dot, .svg)")
	cmd.Flags().BoolVar(&opts.stages, "stages", opts.stages, "align tasks of the same stage (DOT/SVG)")
	cmd.Flags().BoolVar(&opts.critical, "critical", opts.critical, "highlight the critical chain (DOT/SVG)")
	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, path string, opts exportOpts) error {
	in, err := c.load(cmd, path, opts.input)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(opts.output))
	switch ext {
	case ".json", ".yaml", ".yml":
		if err := pkgio.ExportFile(in.doc, opts.output); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "Exported %d tasks", in.graph().NodeCount())
		printFile(cmd.OutOrStdout(), opts.output)
		return nil
	case "", ".dot", ".svg":
	default:
		return apperr.New(apperr.ErrCodeUnsupported, "unsupported export format %q", ext)
	}

	dotOpts := dot.Options{Stages: opts.stages}
	if opts.critical {
		_, durations := opts.schedule.resolve(cmd, c.Config, in)
		dotOpts.Highlight = c.criticalSet(in.graph(), durations)
	}
	src := dot.ToDOT(in.graph(), dotOpts)

	var data []byte
	switch ext {
	case "":
		_, err := fmt.Fprint(cmd.OutOrStdout(), src)
		return err
	case ".dot":
		data = []byte(src)
	case ".svg":
		spinner := newSpinner("Rendering SVG...")
		if isTerminal(os.Stderr) {
			spinner.Start()
		}
		prog := newProgress(c.Logger)
		data, err = dot.RenderSVG(cmd.Context(), src)
		spinner.Stop()
		if err != nil {
			return err
		}
		if c.verbose {
			prog.done("Rendered SVG")
		}
	}

	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess(cmd.OutOrStdout(), "Exported %d tasks", in.graph().NodeCount())
	printFile(cmd.OutOrStdout(), opts.output)
	return nil
}

// criticalSet returns the tasks on one critical chain. Graphs whose
// durations are invalid are exported without highlighting.
func (c *CLI) criticalSet(g *dag.DAG, durations duration.Func) map[string]bool {
	if err := duration.Validate(durations, g.Nodes()); err != nil {
		c.Logger.Warn("critical chain not highlighted", "err", err)
		return nil
	}
	chain, err := simulate.CriticalChain(g, durations)
	if err != nil {
		c.Logger.Warn("critical chain not highlighted", "err", err)
		return nil
	}
	set := make(map[string]bool, len(chain))
	for _, id := range chain {
		set[id] = true
	}
	return set
}
