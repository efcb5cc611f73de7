package main

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/yukikurage/team-checklist-api/internal/config"
	"github.com/yukikurage/team-checklist-api/internal/database"
	"github.com/yukikurage/team-checklist-api/internal/repository"
	"github.com/yukikurage/team-checklist-api/internal/services"
)

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Renumber sibling groups that ended up with duplicate positions",
		Long: `Scan every team's live tasks and renumber each sibling group in which two
or more tasks share a position. Safe to run while the server is up; each
group is rewritten in its own transaction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(config.Load())
			if err != nil {
				return err
			}

			taskService := services.NewTaskService(
				repository.NewTaskRepository(db),
				repository.NewTeamRepository(db),
				nil,
			)

			repaired, err := taskService.SweepPositions()
			if err != nil {
				return err
			}

			log.Printf("Renumbered %d sibling group(s)", repaired)
			return nil
		},
	}
}
