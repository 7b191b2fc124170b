package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stepflow/pkg/planner"
)

type planOpts struct {
	input       inputFlags
	schedule    scheduleFlags
	format      string
	breakCycles bool
	noCache     bool
	refresh     bool
	table       bool
	scale       int
}

// planCommand orders and schedules a graph through the planner, so results
// are cached and recorded in the run history.
func (c *CLI) planCommand() *cobra.Command {
	opts := planOpts{format: formatText, table: true}

	cmd := &cobra.Command{
		Use:   "plan <input>",
		Short: "Order and schedule tasks, with caching and run history",
		Long: `Compute the completion order, the parallel stages, the worker-pool
schedule and the critical chain of <input>. Results are cached by graph and
durations, and every run is recorded (see "stepflow runs list").`,
		Example: `  stepflow plan -w 5 steps.txt
  stepflow plan --break-cycles --format json graph.json
  stepflow plan --no-cache -w 2 --base 0 steps.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format, formatText, formatJSON); err != nil {
				return err
			}
			return c.runPlan(cmd, args[0], opts)
		},
	}

	opts.input.register(cmd)
	opts.schedule.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json")
	cmd.Flags().BoolVar(&opts.breakCycles, "break-cycles", false, "drop back edges instead of failing on a cycle")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if a cached result exists")
	cmd.Flags().BoolVar(&opts.table, "table", opts.table, "print the timeline table")
	cmd.Flags().IntVar(&opts.scale, "scale", 0, "ticks per Gantt column (default: fit to 100 columns)")
	return cmd
}

func (c *CLI) runPlan(cmd *cobra.Command, path string, opts planOpts) error {
	ctx := cmd.Context()
	in, err := c.load(cmd, path, opts.input)
	if err != nil {
		return err
	}
	workers, durations := opts.schedule.resolve(cmd, c.Config, in)

	runner, closeAll := c.newRunner(ctx, opts.noCache)
	defer closeAll()

	spinner := newSpinnerWithContext(ctx, cmd.ErrOrStderr(), "Planning...")
	if opts.format == formatText && isTerminal(cmd.ErrOrStderr()) {
		spinner.Start()
	}
	res, err := runner.Plan(ctx, in.graph(), planner.Options{
		Workers:     workers,
		Duration:    durations,
		BreakCycles: opts.breakCycles,
		Refresh:     opts.refresh,
		TTL:         c.Config.Cache.TTL.Duration,
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if len(res.Removed) > 0 {
		removed := make([]string, len(res.Removed))
		for i, e := range res.Removed {
			removed[i] = e.From + " " + iconArrow + " " + e.To
		}
		printWarning(out, "removed %d edge(s) to break cycles: %s", len(removed), strings.Join(removed, ", "))
	}
	printStats(out, res.Stats.Tasks, res.Stats.Edges, res.Cached)
	printKeyValue(out, "order", strings.Join(res.Order, " "))
	printKeyValue(out, "stages", formatStages(res.Stages))
	if res.RunID != "" {
		printKeyValue(out, "run", res.RunID)
	}
	if res.Schedule != nil {
		printSchedule(out, res.Schedule, res.Critical, opts.table, opts.scale)
	}
	c.Logger.Debug("plan finished",
		"sequence", res.Stats.SequenceTime,
		"simulate", res.Stats.SimulateTime,
		"cached", res.Cached)
	return nil
}

// formatStages renders stages as "C | A F | B D | E".
func formatStages(stages [][]string) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = strings.Join(s, " ")
	}
	return strings.Join(parts, StyleDim.Render(" | "))
}
