package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/storytree/internal/cli"
)

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Read a story in the terminal",
	Long: `Evaluates the story file and reads it interactively. Type the number or the
text of an option to choose it, "quit" to stop.

With --session the reading is kept in the configured store and resumed
the next time the same session is played.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		opts := cli.PlayOptions{Path: args[0]}
		opts.StoryID, _ = flags.GetString("story")
		opts.SessionID, _ = flags.GetString("session")
		opts.Fresh, _ = flags.GetBool("fresh")
		opts.JSON, _ = flags.GetBool("json")
		opts.Quiet, _ = flags.GetBool("quiet")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Play(ctx, cfg, opts, logger)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().String("story", "", "ID of the story to read when the file declares several")
	playCmd.Flags().String("session", "", "Session ID; keeps the reading in the configured store")
	playCmd.Flags().Bool("fresh", false, "Start the session over")
	playCmd.Flags().Bool("json", false, "JSON lines mode (one action list per line, one answer per line)")
	playCmd.Flags().BoolP("quiet", "q", false, "No banner nor status messages")
	playCmd.Flags().String("theme", "", "Markdown theme: auto, dark, light or notty")
}
