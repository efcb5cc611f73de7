package models

import (
	"time"

	"github.com/yukikurage/team-checklist-api/internal/tasktree"
)

type TaskStatus string

const (
	TaskStatusTodo TaskStatus = "TODO"
	TaskStatusDone TaskStatus = "DONE"
)

// Task is a checklist item. Tasks form a tree per team; siblings are ordered
// by Position. Deleted tasks stay in the table with IsDeleted set.
type Task struct {
	ID            uint64     `gorm:"primarykey" json:"id"`
	Title         string     `gorm:"not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Status        TaskStatus `gorm:"type:varchar(20);not null;default:'TODO'" json:"status"`
	ParentID      *uint64    `gorm:"index" json:"parent_id"`
	Position      int64      `gorm:"not null;default:0" json:"position"`
	IsDeleted     bool       `gorm:"not null;default:false" json:"is_deleted"`
	CreatorID     uint64     `gorm:"not null" json:"creator_id"`
	TeamID        uint64     `gorm:"not null" json:"team_id"`
	CompletedByID *uint64    `json:"completed_by_id"`
	CompletedAt   *time.Time `json:"completed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relations
	Creator     User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Team        Team             `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
}

// Node returns the ordering view of the task.
func (t Task) Node() tasktree.Node {
	return tasktree.Node{
		ID:        t.ID,
		TeamID:    t.TeamID,
		ParentID:  t.ParentID,
		Position:  t.Position,
		IsDeleted: t.IsDeleted,
	}
}

// Nodes converts tasks to tree nodes, preserving order.
func Nodes(tasks []Task) []tasktree.Node {
	nodes := make([]tasktree.Node, len(tasks))
	for i, t := range tasks {
		nodes[i] = t.Node()
	}
	return nodes
}
