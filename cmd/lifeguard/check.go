package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/lifeguard/bootstrap"
	"github.com/artpar/lifeguard/config"
	"github.com/artpar/lifeguard/core/executor"
	"github.com/artpar/lifeguard/core/pool"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Open the pool and probe every worker",
	Long: `Open the configured pool, run SELECT 1 through each worker once
and report the result. Exits non-zero when any probe fails.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Second, "overall probe timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	p, err := bootstrap.OpenPool(ctx, cfg.Database, zerolog.Nop(), nil)
	if err != nil {
		return fmt.Errorf("open pool: %w", err)
	}
	defer p.Close()

	return probeWorkers(ctx, p, cmd.OutOrStdout())
}

// probeWorkers submits one probe per worker; round-robin dispatch sends
// each to a different worker.
func probeWorkers(ctx context.Context, p *pool.Pool, out io.Writer) error {
	failed := 0
	for i := 0; i < p.Size(); i++ {
		start := time.Now()
		ok, err := pool.Run(ctx, p, func(ctx context.Context, ex executor.Executor) (bool, error) {
			return pool.CheckHealth(ctx, ex), nil
		})
		status := "ok"
		if err != nil || !ok {
			status = "FAILED"
			failed++
		}
		fmt.Fprintf(out, "worker %d: %s (%s)\n", i, status, time.Since(start).Round(time.Microsecond))
	}

	fmt.Fprintf(out, "pool %s: %d/%d workers healthy\n", p.ID(), p.Size()-failed, p.Size())
	if failed > 0 {
		return fmt.Errorf("%d workers failed health check", failed)
	}
	return nil
}
