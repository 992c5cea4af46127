package main

import (
	"github.com/aretw0/rillweb/internal/cli"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:       "graph [workflow]",
	Short:     "Print a source workflow as a Mermaid flowchart",
	ValidArgs: []string{domain.WorkflowCreateSource, domain.WorkflowRefreshSource},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		workflow := domain.WorkflowCreateSource
		if len(args) > 0 {
			workflow = args[0]
		}
		return cli.PrintGraph(cmd.OutOrStdout(), workflow, nil)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
