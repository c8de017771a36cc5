package cmd

import (
	"github.com/huangsam/conceptrace/core"
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/spf13/cobra"
)

// tokenizeCmd shows how identifiers decompose.
var tokenizeCmd = &cobra.Command{
	Use:   "tokenize IDENTIFIER...",
	Short: "Show the tokens and vocabulary terms of identifiers",
	Long: `Split each identifier into camel-case tokens and normalized vocabulary terms.

Uses the same normalizer settings as matching (stemmer, rejected words,
Hungarian trimming) so you can check why two names do or do not match.
No store is opened.

Examples:
  conceptrace tokenize getAccountBalance m_strOwnerName HTTPServer2

  # With English stemming
  conceptrace tokenize --stemmer english accountsAccount`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteTokenize(rootCtx, cfg, args); err != nil {
			contract.LogFatal("Cannot tokenize identifiers", err)
		}
	},
}
