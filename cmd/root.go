package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saxenaaman628/redis-joke-list/config"
	"github.com/saxenaaman628/redis-joke-list/internal/logger"
)

var (
	version = "dev"
	commit  = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jokelist",
	Short: "Joke list server with persistent vote counts",
	Long: `jokelist serves per-session lists of dad jokes fetched from a public
joke API. Jokes can be voted on and locked; vote counts persist in Redis,
Pebble or memory.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().String("backend", "", "vote store backend: redis, pebble or memory (overrides STORE_BACKEND)")
}

// loadConfig reads .env and the environment, then applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	config.LoadEnv()
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		os.Setenv("STORE_BACKEND", backend)
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}
