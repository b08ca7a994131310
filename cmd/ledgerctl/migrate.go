package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslimakintunde/shortlets-backend-api/internal/database"
	"github.com/teslimakintunde/shortlets-backend-api/internal/migration"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the ledger schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, db, err := bootstrap()
			if err != nil {
				return err
			}
			if err := migration.Run(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations (PostgreSQL only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.New("--steps must be at least 1")
			}
			_, _, db, err := bootstrap()
			if err != nil {
				return err
			}
			if db.Dialector.Name() != database.DialectPostgres {
				return errors.New("rollback is only supported on postgres")
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := migration.Down(sqlDB, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}
