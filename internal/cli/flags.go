package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stepflow/pkg/config"
	"github.com/matzehuels/stepflow/pkg/duration"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// scheduleFlags holds the pool and duration flags. Values only override the
// config when the flag was given explicitly.
type scheduleFlags struct {
	workers         int
	base            int
	defaultDuration int
}

func (f *scheduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "worker pool size (default from config)")
	cmd.Flags().IntVar(&f.base, "base", 0, "base duration added to a letter task's rank (default from config)")
	cmd.Flags().IntVar(&f.defaultDuration, "default-duration", 0, "duration of tasks that are not single letters")
}

// resolve applies the explicitly set flags to a copy of cfg and returns the
// pool size and duration model to use.
func (f *scheduleFlags) resolve(cmd *cobra.Command, cfg *config.Config, in *input) (int, duration.Func) {
	eff := *cfg
	if cmd.Flags().Changed("workers") {
		eff.Workers = f.workers
	}
	if cmd.Flags().Changed("base") {
		eff.BaseDuration = f.base
	}
	if cmd.Flags().Changed("default-duration") {
		eff.DefaultDuration = f.defaultDuration
	}
	return eff.Workers, in.durations(eff.DurationFunc())
}

// validateFormat checks --format against the formats a command accepts.
func validateFormat(format string, allowed ...string) error {
	if !slices.Contains(allowed, format) {
		return fmt.Errorf("invalid format: %s (must be one of %v)", format, allowed)
	}
	return nil
}
