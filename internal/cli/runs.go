package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stepflow/pkg/runstore"
)

// runsCommand groups the run history subcommands.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run history",
	}
	cmd.AddCommand(c.runsListCommand())
	return cmd
}

func (c *CLI) runsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := runstore.Open(ctx, c.Config.Store)
			if err != nil {
				return err
			}
			if store == nil {
				printInfo(out, "Run history is disabled (store backend %q)", c.Config.Store.Backend)
				return nil
			}
			defer store.Close()

			runs, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo(out, "No runs recorded")
				return nil
			}
			printRuns(out, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", runstore.DefaultLimit, "maximum number of runs")
	return cmd
}

func printRuns(w io.Writer, runs []*runstore.Run) {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		makespan := "-"
		if r.Result != nil {
			makespan = strconv.Itoa(r.Result.Makespan)
		}
		cached := ""
		if r.Cached {
			cached = iconCached
		}
		rows = append(rows, []string{
			r.ID,
			r.Kind,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.Tasks),
			makespan,
			cached,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Kind", "Created", "Tasks", "Makespan", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 5 {
				return styleCached
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, t.Render())
}
