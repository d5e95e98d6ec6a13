package main

import (
	"github.com/IgesAI/AMautomation/internal/infra/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		gormDB, err := db.Connect(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()

		if err := db.Migrate(gormDB); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}
