package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/lifeguard/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Configuration valid")
		fmt.Fprintf(out, "  Driver:       %s\n", cfg.Database.Driver)
		fmt.Fprintf(out, "  Workers:      %d\n", cfg.Database.MaxConnections)
		fmt.Fprintf(out, "  Queue:        %d per worker\n", cfg.Database.QueueCapacity)
		fmt.Fprintf(out, "  Listen:       %s\n", cfg.Server.Addr())
		fmt.Fprintf(out, "  Metrics:      %t (%s)\n", cfg.Metrics.Enabled, cfg.Metrics.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
