package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/storytree/internal/cli"
)

var checkCmd = &cobra.Command{
	Use:   "check <file|dir>...",
	Short: "Check stories for errors, unreachable nodes and dead ends",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		watch, _ := cmd.Flags().GetBool("watch")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		err := cli.Check(ctx, cli.CheckOptions{
			Paths:  args,
			Strict: strict,
			Watch:  watch,
			Out:    cmd.OutOrStdout(),
		}, logger)
		if err == nil && !watch {
			fmt.Fprintln(cmd.OutOrStdout(), "Stories are valid! ✅")
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Bool("strict", false, "Fail on warnings")
	checkCmd.Flags().BoolP("watch", "w", false, "Check again whenever a story file changes")
}
