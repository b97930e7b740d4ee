package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trade-grid-lab/internal/config"
	"trade-grid-lab/internal/storage/migrations"
	pgstore "trade-grid-lab/internal/storage/postgres"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres and ClickHouse schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Storage.Backend != config.BackendPostgres {
				return fmt.Errorf("migrate requires --storage=%s", config.BackendPostgres)
			}
			ctx := cmd.Context()

			pool, err := pgstore.NewPool(ctx, c.cfg.Storage.PostgresDSN)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()

			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return err
			}
			c.logger.Info().Msg("postgres migrations applied")

			conn, err := migrations.RunClickhouseMigrations(ctx, c.cfg.Storage.ClickhouseDSN)
			if err != nil {
				return err
			}
			defer conn.Close()
			c.logger.Info().Msg("clickhouse migrations applied")
			return nil
		},
	}
}
