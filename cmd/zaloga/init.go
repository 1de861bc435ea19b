package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and the first administrator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx, cfg)
		if err != nil {
			return err
		}
		defer deps.DB.Close()

		password, created, err := deps.Service.BootstrapAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email)
		if err != nil {
			return fmt.Errorf("bootstrapping admin: %w", err)
		}
		if !created {
			fmt.Printf("Database %s already has an administrator.\n", cfg.DB)
			return nil
		}
		printInitResult(cfg.DB, cfg.Admin.Email, password)
		return nil
	},
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, email, password string) {
	fmt.Printf("Database ready: %s\n", dbPath)
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
}
