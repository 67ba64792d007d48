package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/lifeguard/bootstrap"
	"github.com/artpar/lifeguard/config"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply *.sql migrations from a directory",
	Long: `Apply every *.sql file in --dir that is not yet recorded in
schema_migrations, in lexical order, each in its own transaction.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory containing *.sql migrations")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if _, err := os.Stat(migrationsDir); err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}

	logger := bootstrap.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	// Migrations run serially; one worker is enough.
	cfg.Database.MaxConnections = 1

	p, err := bootstrap.OpenPool(cmd.Context(), cfg.Database, logger, nil)
	if err != nil {
		return fmt.Errorf("open pool: %w", err)
	}
	defer p.Close()

	applied, err := p.Migrate(cmd.Context(), os.DirFS(migrationsDir))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(applied) == 0 {
		fmt.Fprintln(out, "Schema up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(out, "applied %s\n", name)
	}
	return nil
}
