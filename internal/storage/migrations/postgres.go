package migrations

import (
	"context"
	"fmt"

	"trade-grid-lab/internal/storage/migrations/sqlfiles"
	"trade-grid-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the markets and trades schema.
// Every file is written to be idempotent, so this is safe on each startup.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := load(sqlfiles.PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, m := range files {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}
	return nil
}
