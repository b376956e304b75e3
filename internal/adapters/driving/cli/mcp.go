package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medisimplify/medisimplify/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can list,
search, read, export and delete saved documents.

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead, for example to test with MCP Inspector.

Examples:
  # Stdio mode (default)
  medisimplify mcp serve

  # HTTP mode
  medisimplify mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "medisimplify": {
        "command": "/path/to/medisimplify",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{Documents: documentStore})
	if err != nil {
		return err
	}

	if port > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost:%d\n", port)
		return server.RunHTTP(cmd.Context(), fmt.Sprintf(":%d", port))
	}

	return server.Run(cmd.Context())
}
