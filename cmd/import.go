package cmd

import (
	"github.com/huangsam/conceptrace/core"
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/spf13/cobra"
)

// importCmd groups the commands that load data into the model store.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load project models and execution traces into the store",
	Long: `Load data into the model store.

Subcommands:
  model  - Replace the source model and ontology of a project
  traces - Replace the traces of one scenario of a project`,
}

// importModelCmd loads a project document.
var importModelCmd = &cobra.Command{
	Use:   "model FILE",
	Short: "Replace the source model and ontology of a project",
	Long: `Load a project document (YAML or JSON) holding classes, methods and
concepts, and replace the stored model of the project.

Stored matches of the project are deleted since they belong to the old model.
The project name comes from --project or from the document's project field.

Examples:
  conceptrace import model bank.yaml
  conceptrace import model --project bank-v2 bank.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteImportModel(rootCtx, cfg, storeManager, args[0]); err != nil {
			contract.LogFatal("Cannot import project model", err)
		}
	},
}

// importTracesCmd loads a trace file.
var importTracesCmd = &cobra.Command{
	Use:   "traces FILE",
	Short: "Replace the traces of one scenario of a project",
	Long: `Load a CSV trace file with the header
sequence_number,entering,method_id[,timestamp] and replace the stored traces
of the scenario.

Examples:
  conceptrace import traces --project bank --scenario deposit deposit.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: projectSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteImportTraces(rootCtx, cfg, storeManager, args[0]); err != nil {
			contract.LogFatal("Cannot import traces", err)
		}
	},
}
