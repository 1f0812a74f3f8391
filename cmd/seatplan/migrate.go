package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cimillas/seatplan/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	names, err := migrations.Names()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%d migrations)\n", len(names))
	return nil
}
