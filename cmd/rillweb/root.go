package main

import (
	"fmt"
	"os"

	"github.com/aretw0/rillweb/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "rillweb",
	Short:         "rillweb is the local application layer of a Rill workbench",
	Long:          `rillweb keeps the active entity, runs source workflows against a Rill runtime and serves them to browsers, terminals and agents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cliOptions(cmd *cobra.Command) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	quiet, _ := cmd.Flags().GetBool("quiet")
	return cli.Options{
		ConfigPath: configPath,
		Flags:      cmd.Flags(),
		Out:        cmd.OutOrStdout(),
		Quiet:      quiet,
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file")
	pf.String("runtime-url", "", "Base URL of the Rill runtime API")
	pf.String("instance-id", "", "Runtime instance to operate on")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text, json)")
	pf.Duration("request-timeout", 0, "Timeout for runtime requests")
	pf.String("cache-backend", "", "Query cache backend (memory, redis)")
	pf.String("redis-addr", "", "Redis address for the redis cache backend")
	pf.String("cache-prefix", "", "Key prefix for the redis cache backend")
	pf.Duration("cache-ttl", 0, "Expiry of cached query results (0 keeps them)")
	pf.Int("queue-workers", 0, "Number of request queue workers")
	pf.BoolP("quiet", "q", false, "Suppress reports")
}
