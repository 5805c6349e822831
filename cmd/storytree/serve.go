package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/storytree/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve <file|dir>...",
	Short: "Serve stories over HTTP",
	Long: `Loads every story found in the arguments and exposes them through a JSON API,
with Server-Sent Events for session updates and Prometheus metrics on /metrics.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := serveOptions(cmd, args)
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Serve(ctx, cfg, opts, logger)
	},
}

func serveOptions(cmd *cobra.Command, args []string) cli.ServeOptions {
	opts := cli.ServeOptions{Paths: args, Addr: cfg.Server.Addr, Watch: cfg.Server.Watch}
	if cmd.Flags().Changed("addr") {
		opts.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("watch") {
		opts.Watch, _ = cmd.Flags().GetBool("watch")
	}
	return opts
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the stories when their files change")
}
