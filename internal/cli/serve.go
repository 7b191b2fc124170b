package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stepflow/internal/api"
)

// serveCommand runs the HTTP API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the planner over HTTP. Requests share the configured cache and run
history; see the api package for the routes.`,
		Example: `  stepflow serve --addr :9000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}

			runner, closeAll := c.newRunner(ctx, false)
			defer closeAll()

			h := api.NewHandler(runner, runner.Store, c.Config, c.Logger)
			return api.NewServer(c.Config.Server.Addr, h).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
