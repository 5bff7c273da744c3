package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invoicedesk/invoicedesk/internal/platform/db"
)

func newMigrateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}
	for _, dir := range []db.Direction{db.Up, db.Down} {
		cmd.AddCommand(&cobra.Command{
			Use:   string(dir),
			Short: fmt.Sprintf("Run every %s migration", dir),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := db.Migrate(e.cfg.PGDSN, dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
				return nil
			},
		})
	}
	return cmd
}
