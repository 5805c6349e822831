package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/storytree"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of storytree",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "storytree version %s\n", strings.TrimSpace(storytree.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
