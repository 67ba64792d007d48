package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/lifeguard/bootstrap"
	"github.com/artpar/lifeguard/config"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pool with health and metrics endpoints",
	Long: `Start the lifeguard worker pool and its operational HTTP server.

The server will:
  - Load configuration from lifeguard.yaml (or --config)
  - Or load configuration from LIFEGUARD_* environment variables
  - Open one connection per worker
  - Serve /health, /health/ready, /version and /metrics

Examples:
  lifeguard serve
  lifeguard serve --config /etc/lifeguard/config.yaml
  lifeguard serve --hot-reload=false

  # Env vars only:
  LIFEGUARD_DATABASE_URL=postgres://localhost/app lifeguard serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with config file
		app, err = bootstrap.NewWithHotReload(cmd.Context(), cfgFile, bootstrap.WithVersion(version))
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}
		if !hasConfigFile {
			fmt.Fprintln(cmd.ErrOrStderr(), "Running with environment variables (no config file)")
		}
		app, err = bootstrap.New(cmd.Context(), cfg, bootstrap.WithVersion(version))
	}
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
