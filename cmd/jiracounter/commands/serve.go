package commands

import (
	"jiracounter/internal/config"
	"jiracounter/internal/jira"
	"jiracounter/internal/mcp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.ScopeJira); err != nil {
			return err
		}
		server := mcp.NewServer(jira.NewClient(cfg.Jira), clock, tables, Version)
		return server.Serve(cmd.Context())
	},
}
