package cmd

import (
	"fmt"

	"github.com/huangsam/conceptrace/core"
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/spf13/cobra"
)

// timeseriesCmd projects a recorded scenario onto the concepts of a project.
var timeseriesCmd = &cobra.Command{
	Use:   "timeseries",
	Short: "Show which domain concepts were active during a recorded execution",
	Long: `Project the traces of a recorded scenario through the stored matches.

Entering events are split into equal-width segments of their sequence range.
Each event counts for the best concept of its method, so every segment row
shows how often each concept was active.

Examples:
  conceptrace timeseries --project bank --scenario deposit --segments 5

  # Only count confident matches, with fixed columns
  conceptrace timeseries --project bank --scenario deposit --threshold 0.5 --concepts "Deposit,Account"`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := projectSetupWrapper(cmd, args); err != nil {
			return err
		}
		if cfg.Scenario == "" {
			return fmt.Errorf("--scenario is required")
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTimeseries(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot project scenario", err)
		}
	},
}
