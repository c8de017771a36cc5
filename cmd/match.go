package cmd

import (
	"github.com/huangsam/conceptrace/core"
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/spf13/cobra"
)

// matchCmd recomputes the matches of a project.
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Compute method-to-concept matches of a project",
	Long: `Recompute every (method, concept) match of a stored project, replace the
stored matches and print the top of the ranking.

By default each method keeps its best concept only. Use --exhaustive to keep
every pair with a positive weight.

Examples:
  conceptrace match --project bank

  # Dice similarity with stemming, showing shared terms
  conceptrace match --project bank --algorithm dice --stemmer english --detail

  # Track the run and export it later
  conceptrace match --project bank --runs-backend sqlite`,
	PreRunE: projectSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMatch(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot compute matches", err)
		}
	},
}

// matchesCmd prints the stored matches of a project.
var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Print the stored matches of a project",
	Long: `Print the matches stored by the last match run, ranked by weight,
without recomputing them.

Examples:
  conceptrace matches --project bank --limit 20
  conceptrace matches --project bank --output parquet --output-file matches.parquet`,
	PreRunE: projectSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMatches(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot read matches", err)
		}
	},
}
