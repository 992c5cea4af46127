package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/rillweb"
	"github.com/aretw0/rillweb/internal/cli"
	"github.com/aretw0/rillweb/pkg/adapters/dialog"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/spf13/cobra"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Create and refresh sources",
}

var sourceCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a source from a YAML file or connector properties",
	Example: `  rillweb source create orders --file orders.yaml
  rillweb source create orders --connector s3 --property path=s3://bucket/orders.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		connector, _ := cmd.Flags().GetString("connector")
		props, _ := cmd.Flags().GetStringArray("property")

		properties := make(map[string]string, len(props))
		for _, p := range props {
			k, v, ok := strings.Cut(p, "=")
			if !ok {
				return fmt.Errorf("invalid property %q, expected key=value", p)
			}
			properties[k] = v
		}

		opts := cliOptions(cmd)
		opts.Render, _ = cmd.Flags().GetBool("render")
		app, _, _, err := cli.NewApp(opts)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		app.Start(ctx)

		return cli.CreateSource(ctx, app, opts, cli.CreateOptions{
			Name:       args[0],
			File:       file,
			Connector:  connector,
			Properties: properties,
		})
	},
}

var sourceRefreshCmd = &cobra.Command{
	Use:   "refresh <name>",
	Short: "Refresh a source",
	Long: `Refreshes a remote source, or replaces the file behind a local_file source.

For local_file sources the replacement is taken from --file, or asked for on
the terminal when the flag is absent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		connector, _ := cmd.Flags().GetString("connector")
		file, _ := cmd.Flags().GetString("file")

		var picker rillweb.Option
		if file != "" {
			picker = rillweb.WithFileDialog(dialog.NewStatic(file))
		} else {
			picker = rillweb.WithFileDialog(dialog.NewPrompt(os.Stdin, cmd.ErrOrStderr()))
		}

		opts := cliOptions(cmd)
		opts.Render, _ = cmd.Flags().GetBool("render")
		app, _, _, err := cli.NewApp(opts, picker)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		app.Start(ctx)

		return cli.RefreshSource(ctx, app, opts, args[0], connector)
	},
}

func init() {
	sourceCreateCmd.Flags().String("file", "", "Source YAML file")
	sourceCreateCmd.Flags().String("connector", "", "Connector to compile the source for")
	sourceCreateCmd.Flags().StringArrayP("property", "p", nil, "Connector property as key=value (repeatable)")
	sourceCreateCmd.Flags().Bool("render", false, "Render the report for the terminal")
	sourceCreateCmd.MarkFlagsMutuallyExclusive("file", "connector")

	sourceRefreshCmd.Flags().String("connector", domain.ConnectorLocalFile, "Connector of the source")
	sourceRefreshCmd.Flags().String("file", "", "Replacement file for local_file sources")
	sourceRefreshCmd.Flags().Bool("render", false, "Render the report for the terminal")

	sourceCmd.AddCommand(sourceCreateCmd, sourceRefreshCmd)
	rootCmd.AddCommand(sourceCmd)
}
