package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/esg-assistant/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the ask_esg, search_documents and get_risk_taxonomy tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stdout carries the protocol; progress and logs go to stderr.
		svc, err := loadService(cmd.Context(), serviceOptions{quiet: true})
		if err != nil {
			return err
		}

		mcpserver.Version = Version

		fmt.Fprintf(cmd.ErrOrStderr(), "esgassist MCP server started on stdio (passages=%d)\n", svc.Index().Count())

		return mcpserver.NewServer(svc).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
