package main

import (
	"errors"

	"github.com/spf13/cobra"

	"equilibrium/internal/platform/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to DATABASE_URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("DATABASE_URL is required")
			}
			defer db.Close()

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info("schema migrated")
			return nil
		},
	}
}
