package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/rillweb"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of rillweb",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rillweb version %s\n", strings.TrimSpace(rillweb.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
