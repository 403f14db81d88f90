package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/satobs/internal/logging"
	"github.com/signalsfoundry/satobs/internal/store"
)

func newImportCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Store element set files in the catalog database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dbPath == "" {
				dbPath = a.cfg.Catalog.DB
			}
			sets, err := a.readElementSets(ctx, args)
			if err != nil {
				return err
			}

			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.Save(ctx, sets)
			if err != nil {
				return err
			}
			total, err := db.Count(ctx)
			if err != nil {
				return err
			}
			a.log.Info(ctx, "imported element sets",
				logging.String("db", db.Path()),
				logging.Int("saved", n),
				logging.Int("stored", total),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d element sets into %s (%d stored)\n", n, db.Path(), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "catalog database path (default from config)")
	return cmd
}
