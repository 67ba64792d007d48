package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lifeguard",
	Short: "PostgreSQL worker pool and query toolkit",
	Long: `Lifeguard runs a fixed pool of database workers, each owning one
connection, and exposes health and Prometheus endpoints for it.

Commands:
  lifeguard serve     # Start the pool with health and metrics endpoints
  lifeguard check     # Open the pool and probe every worker
  lifeguard migrate   # Apply *.sql migrations from a directory
  lifeguard validate  # Validate configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "lifeguard.yaml", "config file path")
}
