package cli

import (
	"context"
	"database/sql"

	"bookingcrm/internal/config"
	"bookingcrm/internal/db"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		a.migrateSubcommand("up", "Apply every pending migration", migrateUp),
		a.migrateSubcommand("down", "Roll back the latest migration", db.MigrateDown),
		a.migrateSubcommand("status", "Print the state of every migration", db.MigrateStatus),
	)
	return cmd
}

func (a *app) migrateSubcommand(use, short string, run func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sqlDB, err := config.OpenDB(cmd.Context(), a.env.Database)
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := run(cmd.Context(), sqlDB); err != nil {
				return err
			}
			a.log.WithField("command", "migrate "+use).Info("done")
			return nil
		},
	}
}

func migrateUp(ctx context.Context, sqlDB *sql.DB) error {
	return db.MigrateUp(ctx, sqlDB)
}
