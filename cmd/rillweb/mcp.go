package main

import (
	"fmt"
	"log"

	"github.com/aretw0/rillweb/internal/cli"
	"github.com/aretw0/rillweb/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the active-entity store and the source workflows as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")

		opts := cliOptions(cmd)
		opts.Quiet = true
		app, cfg, logger, err := cli.NewApp(opts)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		app.Start(ctx)

		srv := mcp.NewAppServer(app, logger)
		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(cmd.ErrOrStderr())
			logger.Info("Starting rillweb MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting rillweb MCP server (SSE)", "address", cfg.Listen)
			return srv.ServeSSE(ctx, cfg.Listen)
		default:
			return fmt.Errorf("unknown transport %q", transport)
		}
	},
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport to use (stdio, sse)")
	mcpCmd.Flags().String("listen", "", "Address for the sse transport")
	rootCmd.AddCommand(mcpCmd)
}
