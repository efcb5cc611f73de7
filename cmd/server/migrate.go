package main

import (
	"github.com/spf13/cobra"
	"github.com/yukikurage/team-checklist-api/internal/config"
	"github.com/yukikurage/team-checklist-api/internal/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(config.Load())
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}
