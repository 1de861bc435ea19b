package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erazemk/zaloga/internal/db"
)

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigration,
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration")
}

func runMigration(_ *cobra.Command, _ []string) error {
	cfg, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	database, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	if migrateRollback {
		err = db.Rollback(ctx, database)
	} else {
		err = db.Migrate(ctx, database)
	}
	if err != nil {
		return err
	}

	version, err := db.Version(ctx, database)
	if err != nil {
		return err
	}
	fmt.Printf("Database %s at schema version %d\n", cfg.DB, version)
	return nil
}
