package cmd

import (
	"github.com/huangsam/conceptrace/core"
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/spf13/cobra"
)

// stemsCmd prints the stem trees of a project.
var stemsCmd = &cobra.Command{
	Use:   "stems",
	Short: "Print the stem trees of every method and concept of a project",
	Long: `Build and print the typed stem trees of a stored project.

Each full identifier stem is followed by its part stems. Use --kind to limit
the listing to methods or concepts.

Examples:
  conceptrace stems --project bank
  conceptrace stems --project bank --kind concept --output csv`,
	PreRunE: projectSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteStems(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot build stem trees", err)
		}
	},
}
