package cli

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stepflow/pkg/simulate"
)

type replayOpts struct {
	input    inputFlags
	schedule scheduleFlags
	interval time.Duration
	paused   bool
}

// replayCommand simulates a graph and plays the schedule back in the
// terminal.
func (c *CLI) replayCommand() *cobra.Command {
	opts := replayOpts{interval: 200 * time.Millisecond}

	cmd := &cobra.Command{
		Use:   "replay <input>",
		Short: "Step through a simulation tick by tick",
		Example: `  stepflow replay -w 2 --base 0 steps.txt
  stepflow replay --interval 50ms steps.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReplay(cmd, args[0], opts)
		},
	}

	opts.input.register(cmd)
	opts.schedule.register(cmd)
	cmd.Flags().DurationVar(&opts.interval, "interval", opts.interval, "wall-clock time per simulated tick")
	cmd.Flags().BoolVar(&opts.paused, "paused", false, "start paused")
	return cmd
}

func (c *CLI) runReplay(cmd *cobra.Command, path string, opts replayOpts) error {
	in, err := c.load(cmd, path, opts.input)
	if err != nil {
		return err
	}
	workers, durations := opts.schedule.resolve(cmd, c.Config, in)

	sim, err := simulate.New(in.graph(), simulate.Options{Workers: workers, Duration: durations})
	if err != nil {
		return err
	}
	res, err := sim.Run()
	if err != nil {
		return err
	}
	critical, err := simulate.CriticalChain(in.graph(), durations)
	if err != nil {
		return err
	}

	m := NewReplayModel(res, critical, opts.interval, !opts.paused)
	p := tea.NewProgram(m,
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()))
	_, err = p.Run()
	return err
}
