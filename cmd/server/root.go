package main

import (
	"adaptive-cache-service/internal/config"

	"github.com/spf13/cobra"
)

// cfg is shared by every subcommand. Environment variables are applied
// before flags are bound, so flags win.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "ledis",
	Short: "In-memory key-value server with adaptive eviction",
	Long: `Ledis is an in-memory key-value server speaking a small Redis-like
command language over HTTP and gRPC. When an eviction window is set, a
pluggable policy (lru, lfu, hybrid, fifo, random) keeps the keyspace
within it.

Examples:
  # Serve with the hybrid policy and room for 1000 keys
  ledis serve --policy hybrid --window 1000

  # Run one command against a running server
  ledis exec SET greeting "hello world"

  # Compare every policy on a synthetic workload
  ledis bench --window 20 --seeds 1,2,3 --format markdown`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Validate()
	},
}

func init() {
	cfg.ApplyEnv()
	cfg.BindFlags(rootCmd.PersistentFlags())
}
