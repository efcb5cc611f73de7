package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// Indexes backing the sibling and history lookups.
var indexes = []index{
	{"tasks", "idx_tasks_team_parent_position", "team_id, parent_id, position"},
	{"tasks", "idx_tasks_creator_id", "creator_id"},
	{"tasks", "idx_tasks_is_deleted", "is_deleted"},

	{"team_members", "idx_team_members_user_id", "user_id"},

	{"task_assignments", "idx_task_assignments_user_id", "user_id"},

	{"check_ins", "idx_check_ins_team_day", "team_id, day"},
}

// AddIndexes adds the composite indexes AutoMigrate does not derive from tags.
// Existing indexes are skipped.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, idx.columns)
	}

	return nil
}
