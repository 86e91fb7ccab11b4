package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adminkit/toggle/internal/config"
	"github.com/adminkit/toggle/internal/db"
	"github.com/adminkit/toggle/internal/db/migrations"
	"github.com/adminkit/toggle/internal/dbpool"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations for the service's own tables and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			log := newLogger(cfg)

			pool, err := dbpool.NewPool(cmd.Context(), cfg.DatabaseURL.Value(), cfg.DBMaxConns)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			if err := db.RunMigrations(cmd.Context(), pool, log, migrations.FS); err != nil {
				return err
			}

			log.WithField("schema_version", db.SchemaVersion()).Info("migrations complete")

			return nil
		},
	}
}
