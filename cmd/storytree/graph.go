package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/storytree/internal/cli"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the story graph",
	Long:  `Evaluates the story file and prints a Mermaid diagram (graph TD) of its nodes and options.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.GraphOptions{Path: args[0], Out: cmd.OutOrStdout()}
		opts.StoryID, _ = cmd.Flags().GetString("story")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		return cli.Graph(cmd.Context(), cfg, opts, logger)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("story", "", "ID of the story to draw when the file declares several")
	graphCmd.Flags().String("session", "", "Highlight the path of a stored session")
}
