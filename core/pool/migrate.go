package pool

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/artpar/lifeguard/core/executor"
)

// Migrate applies every *.sql file at the root of fsys that is not yet
// recorded in schema_migrations, in name order. Each file runs in its own
// transaction together with its bookkeeping row. It returns the versions
// applied by this call.
func (p *Pool) Migrate(ctx context.Context, fsys fs.FS) ([]string, error) {
	_, err := p.Execute(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`, nil)
	if err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}

	rows, err := p.QueryAll(ctx, "SELECT version FROM schema_migrations", nil)
	if err != nil {
		return nil, fmt.Errorf("query migrations: %w", err)
	}
	applied := make(map[string]bool, len(rows))
	for _, row := range rows {
		version, err := executor.Get[string](row, "version")
		if err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		applied[version] = true
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var done []string
	for _, name := range names {
		version := strings.TrimSuffix(name, ".sql")
		if applied[version] {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return done, fmt.Errorf("read migration %s: %w", name, err)
		}
		err = p.WithTransaction(ctx, ReadCommitted, func(ctx context.Context, tx *Transaction) error {
			if _, err := tx.Execute(ctx, string(content), nil); err != nil {
				return fmt.Errorf("execute migration %s: %w", name, err)
			}
			if _, err := tx.Execute(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", []any{version}); err != nil {
				return fmt.Errorf("record migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return done, err
		}
		p.logger.Info().Str("version", version).Msg("migration applied")
		done = append(done, version)
	}
	return done, nil
}
