package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/operalog/api/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return migrateUp(cfg.Postgres.DSN, logger)
		},
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			migrator, err := persistence.NewMigrator(cfg.Postgres.DSN, logger)
			if err != nil {
				return err
			}
			defer migrator.Close() //nolint:errcheck
			return migrator.Down(steps)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(upCmd, downCmd)
	return migrateCmd
}

func migrateUp(dsn string, logger *zap.Logger) error {
	migrator, err := persistence.NewMigrator(dsn, logger)
	if err != nil {
		return err
	}
	defer migrator.Close() //nolint:errcheck
	return migrator.Up()
}
