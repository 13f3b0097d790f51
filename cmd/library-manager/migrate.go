package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/witr/library-manager/internal/db"
	"github.com/witr/library-manager/internal/migrations"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
			return m.Up(cmd.Context(), migrateSteps)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert applied migrations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := migrateSteps
		if !cmd.Flags().Changed("steps") {
			steps = 1
		}
		return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
			return m.Down(cmd.Context(), steps)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they have run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
			for _, st := range m.Status() {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", st.Version, st.Name, st.Done)
			}
			return tw.Flush()
		})
	},
}

func init() {
	migrateCmd.PersistentFlags().IntVarP(&migrateSteps, "steps", "n", 0, "number of migrations to run (0 = all; down defaults to 1)")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withMigrator(ctx context.Context, fn func(*migrations.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	m, err := migrations.NewMigrator(ctx, database.Pool())
	if err != nil {
		return err
	}
	return fn(m)
}
