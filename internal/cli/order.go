package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stepflow/pkg/sequence"
)

type orderOpts struct {
	input  inputFlags
	stages bool
	sep    string
}

// orderCommand prints a valid completion order. Ties between ready tasks go
// to the smallest identity, so the order is reproducible.
func (c *CLI) orderCommand() *cobra.Command {
	opts := orderOpts{sep: " "}

	cmd := &cobra.Command{
		Use:   "order <input>",
		Short: "Print a valid completion order",
		Long: `Print one valid completion order for the tasks in <input>. Whenever
several tasks are ready, the smallest identity goes first.

Use "-" to read constraints from standard input.`,
		Example: `  stepflow order steps.txt
  stepflow order --sep "" steps.txt      # CABDFE
  stepflow order --stages graph.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrder(cmd, args[0], opts)
		},
	}

	opts.input.register(cmd)
	cmd.Flags().BoolVar(&opts.stages, "stages", false, "print tasks grouped into parallel stages instead")
	cmd.Flags().StringVar(&opts.sep, "sep", opts.sep, "separator between tasks")
	return cmd
}

func (c *CLI) runOrder(cmd *cobra.Command, path string, opts orderOpts) error {
	in, err := c.load(cmd, path, opts.input)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if opts.stages {
		stages, err := sequence.Stages(in.graph())
		if err != nil {
			return err
		}
		for i, stage := range stages {
			fmt.Fprintf(out, "%d\t%s\n", i+1, strings.Join(stage, opts.sep))
		}
		return nil
	}

	order, err := sequence.Order(in.graph())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, strings.Join(order, opts.sep))
	return nil
}
