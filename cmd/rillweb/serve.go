package main

import (
	"github.com/aretw0/rillweb/internal/cli"
	"github.com/aretw0/rillweb/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the rillweb HTTP API",
	Long: `Starts the HTTP API used by the browser front end.

The server exposes the application state, the source workflows and a
Server-Sent Events stream of store changes. Stop it with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cliOptions(cmd)
		app, cfg, logger, err := cli.NewApp(opts)
		if err != nil {
			return err
		}
		defer app.Close()

		if !opts.Quiet {
			tui.PrintBanner(cmd.ErrOrStderr())
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		app.Start(ctx)

		return cli.Serve(ctx, app, cfg.Listen, logger)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}
