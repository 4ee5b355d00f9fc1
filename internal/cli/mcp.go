package cli

import (
	"github.com/spf13/cobra"

	"pagebuilder/internal/app"
)

// NewMCPCommand serves the builder's MCP tools on stdin/stdout.
func NewMCPCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP tool server on stdin/stdout",
		Long: `Run the MCP tool server on stdin/stdout for AI agents.

Edits are autosaved to the shared database; an open desktop builder reloads
them on its next poll.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			return app.ServeMCP(cfg)
		},
	}
}
