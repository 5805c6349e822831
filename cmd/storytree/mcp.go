package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/storytree/internal/cli"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp <file|dir>...",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the stories as MCP tools so that AI agents can read them.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.MCPOptions{ServeOptions: serveOptions(cmd, args)}
		opts.Transport, _ = cmd.Flags().GetString("transport")
		opts.BaseURL, _ = cmd.Flags().GetString("base-url")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.ServeMCP(ctx, cfg, opts, logger)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", cli.TransportStdio, "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8080", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public URL of the SSE server (default: http://localhost<addr>)")
	mcpCmd.Flags().BoolP("watch", "w", false, "Reload the stories when their files change")
}
