package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/stepflow/pkg/io"
	"github.com/matzehuels/stepflow/pkg/render/gantt"
	"github.com/matzehuels/stepflow/pkg/simulate"
)

// ganttWidth caps the chart width when --scale is not given.
const ganttWidth = 100

type simulateOpts struct {
	input    inputFlags
	schedule scheduleFlags
	format   string
	scale    int
	table    bool
}

// simulateCommand runs the worker-pool simulation directly, without the
// cache or run history.
func (c *CLI) simulateCommand() *cobra.Command {
	opts := simulateOpts{format: formatText, table: true}

	cmd := &cobra.Command{
		Use:   "simulate <input>",
		Short: "Simulate the tasks on a worker pool and print the makespan",
		Long: `Schedule the tasks in <input> on a pool of identical workers. Each tick,
idle workers take the ready task with the longest remaining critical path.
Prints the makespan, the per-task timeline and a Gantt chart.`,
		Example: `  stepflow simulate -w 5 --base 60 steps.txt
  stepflow simulate -w 2 --base 0 --format json steps.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			return c.runSimulate(cmd, args[0], opts)
		},
	}

	opts.input.register(cmd)
	opts.schedule.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json, yaml")
	cmd.Flags().IntVar(&opts.scale, "scale", 0, "ticks per Gantt column (default: fit to 100 columns)")
	cmd.Flags().BoolVar(&opts.table, "table", opts.table, "print the timeline table")
	return cmd
}

func (c *CLI) runSimulate(cmd *cobra.Command, path string, opts simulateOpts) error {
	in, err := c.load(cmd, path, opts.input)
	if err != nil {
		return err
	}
	workers, durations := opts.schedule.resolve(cmd, c.Config, in)

	prog := newProgress(c.Logger)
	sim, err := simulate.New(in.graph(), simulate.Options{Workers: workers, Duration: durations})
	if err != nil {
		return err
	}
	res, err := sim.Run()
	if err != nil {
		return err
	}
	c.Logger.Debug("simulation finished", "tasks", len(res.Order), "workers", workers, "makespan", res.Makespan)

	out := cmd.OutOrStdout()
	switch opts.format {
	case formatJSON:
		return pkgio.WriteResultJSON(res, out)
	case formatYAML:
		return pkgio.WriteResultYAML(res, out)
	}

	critical, err := simulate.CriticalChain(in.graph(), durations)
	if err != nil {
		return err
	}
	printSchedule(out, res, critical, opts.table, opts.scale)
	if c.verbose {
		prog.done(fmt.Sprintf("Simulated %d tasks", len(res.Order)))
	}
	return nil
}

// printSchedule writes the human-readable form of a schedule.
func printSchedule(w io.Writer, res *simulate.Result, critical []string, table bool, scale int) {
	printSummary(w, res)
	printKeyValue(w, "completed", strings.Join(res.Order, " "))
	if len(critical) > 0 {
		printKeyValue(w, "critical", StyleCritical.Render(formatChain(critical)))
	}
	if len(res.Timeline) == 0 {
		return
	}
	if table {
		fmt.Fprintln(w, timelineTable(res, critical))
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, gantt.Render(res, gantt.Options{Scale: scale, Width: ganttWidth}))
}
