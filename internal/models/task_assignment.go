package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskAssignment puts a team member on a checklist item. Unassigning
// soft-deletes the row; assigning the same member again restores it.
type TaskAssignment struct {
	TaskID     uint64         `gorm:"primarykey" json:"task_id"`
	UserID     uint64         `gorm:"primarykey" json:"user_id"`
	AssignedAt time.Time      `gorm:"autoCreateTime" json:"assigned_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
