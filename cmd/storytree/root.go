package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/storytree/internal/cli"
	"github.com/aretw0/storytree/internal/config"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storytree",
	Short: "storytree plays branching stories written in a small scripting language",
	Long: `storytree evaluates story scripts (.story) and plain text stories (.story.txt)
into story trees, and lets you read them in the terminal, check them,
draw them as Mermaid graphs, or serve them over HTTP and MCP.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Configuration file (default: storytree.yaml, .yml or .toml in the working directory)")
	flags.String("env-file", ".env", "Environment file loaded before reading STORYTREE_* variables")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
	flags.String("store", "", "Session store: memory, file, sqlite or redis")
	flags.String("store-path", "", "Session directory (file) or database file (sqlite)")
	flags.String("redis-url", "", "Redis URL for the redis store")
}

// loadConfig layers defaults, file and environment, then the flags the
// user actually set.
func loadConfig(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	file, _ := flags.GetString("config")
	envFile, _ := flags.GetString("env-file")

	c, used, err := config.Load(config.Options{File: file, EnvFile: envFile})
	if err != nil {
		return err
	}

	overrides := map[string]*string{
		"log-level":  &c.LogLevel,
		"log-format": &c.LogFormat,
		"store":      &c.Store.Driver,
		"store-path": &c.Store.Path,
		"redis-url":  &c.Store.RedisURL,
	}
	for name, target := range overrides {
		if flags.Changed(name) {
			*target, _ = flags.GetString(name)
		}
	}
	if flags.Lookup("theme") != nil && flags.Changed("theme") {
		c.Theme, _ = flags.GetString("theme")
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := cli.NewLogger(c)
	if err != nil {
		return err
	}
	if used != "" {
		l.Debug("Configuration loaded", "file", used)
	}
	cfg, logger = c, l
	return nil
}
