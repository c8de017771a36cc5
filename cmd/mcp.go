package cmd

import (
	"github.com/huangsam/conceptrace/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the conceptrace MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents tokenize identifiers,
compute and read matches, and project scenarios through standard tools.

Run headers are suppressed so that stdio carries only the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
