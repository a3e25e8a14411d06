package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/banshee-data/spiview/internal/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	var historyDB string
	open := func() (*db.DB, error) {
		path := a.cfg.GetHistoryDB()
		if historyDB != "" {
			path = historyDB
		}
		return db.OpenDB(path)
	}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the run history schema",
	}
	cmd.PersistentFlags().StringVar(&historyDB, "db", "", "Run history database (overrides the config)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := open()
				if err != nil {
					return err
				}
				defer d.Close()
				if err := d.MigrateUp(db.MigrationsFS()); err != nil {
					return err
				}
				return printVersion(cmd, d)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := open()
				if err != nil {
					return err
				}
				defer d.Close()
				if err := d.MigrateDown(db.MigrationsFS()); err != nil {
					return err
				}
				return printVersion(cmd, d)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := open()
				if err != nil {
					return err
				}
				defer d.Close()
				return printVersion(cmd, d)
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				d, err := open()
				if err != nil {
					return err
				}
				defer d.Close()
				if err := d.MigrateForce(db.MigrationsFS(), v); err != nil {
					return err
				}
				return printVersion(cmd, d)
			},
		},
	)
	return cmd
}

func printVersion(cmd *cobra.Command, d *db.DB) error {
	v, dirty, err := d.MigrateVersion(db.MigrationsFS())
	if err != nil {
		return err
	}
	latest, err := db.LatestMigrationVersion(db.MigrationsFS())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d of %d (dirty: %t)\n", v, latest, dirty)
	return err
}
