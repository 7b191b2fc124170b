package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stepflow/pkg/buildinfo"
	"github.com/matzehuels/stepflow/pkg/cache"
	"github.com/matzehuels/stepflow/pkg/config"
	"github.com/matzehuels/stepflow/pkg/planner"
	"github.com/matzehuels/stepflow/pkg/runstore"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "stepflow"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands. Config is populated by the root
// command's pre-run from --config or the default location.
type CLI struct {
	Logger     *log.Logger
	Config     *config.Config
	ConfigPath string

	configFlag string
	verbose    bool
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stepflow orders and schedules tasks with dependencies",
		Long: `Stepflow reads tasks and their precedence constraints, prints a valid
completion order, and simulates how long the work takes on a pool of
identical workers.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.preRun,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFlag, "config", "", "config file (default $XDG_CONFIG_HOME/stepflow/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.orderCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.runsCommand())

	return root
}

// preRun loads the configuration and applies the log level. --verbose wins
// over the configured level.
func (c *CLI) preRun(cmd *cobra.Command, args []string) error {
	cfg, path, err := config.Discover(c.configFlag)
	if err != nil {
		return err
	}
	c.Config, c.ConfigPath = cfg, path

	level := LogInfo
	if cfg.Log.Level != "" {
		if parsed, err := log.ParseLevel(cfg.Log.Level); err == nil {
			level = parsed
		} else {
			c.Logger.Warn("ignoring unknown log level", "level", cfg.Log.Level)
		}
	}
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a planner runner for CLI use. Backends that fail to open
// are replaced by no-ops with a warning, so a missing Redis or MongoDB never
// blocks local planning.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*planner.Runner, func()) {
	cacheCfg := c.Config.Cache
	if noCache {
		cacheCfg.Backend = config.CacheNone
	}
	ch, err := cache.Open(ctx, cacheCfg)
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		ch = cache.NewNullCache()
	}

	store, err := runstore.Open(ctx, c.Config.Store)
	if err != nil {
		c.Logger.Warn("run history disabled", "err", err)
		store = nil
	}

	closeAll := func() {
		_ = ch.Close()
		if store != nil {
			_ = store.Close()
		}
	}
	return planner.NewRunner(ch, nil, store, c.Logger), closeAll
}
