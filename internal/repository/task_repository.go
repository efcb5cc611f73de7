package repository

import (
	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/tasktree"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create inserts the task and assigns its creator in one transaction.
// renumber is applied first so a freshly spread sibling group and the new
// task commit together.
func (r *GormTaskRepository) Create(task *models.Task, renumber []tasktree.PositionUpdate) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := applyPositions(tx, renumber); err != nil {
			return err
		}
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return tx.Create(&models.TaskAssignment{TaskID: task.ID, UserID: task.CreatorID}).Error
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// ListByTeam returns every task of a team
func (r *GormTaskRepository) ListByTeam(teamID uint64, includeDeleted bool, preload ...string) ([]models.Task, error) {
	var tasks []models.Task
	query := r.db.Where("team_id = ?", teamID)

	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Order("position ASC").Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

// ListTeamIDs returns the ids of teams owning at least one task
func (r *GormTaskRepository) ListTeamIDs() ([]uint64, error) {
	var ids []uint64
	if err := r.db.Model(&models.Task{}).Distinct().Order("team_id").Pluck("team_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Update saves the editable fields of a task. Ordering fields are left alone.
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Model(task).
		Select("title", "description", "status", "completed_by_id", "completed_at").
		Updates(task).Error
}

// ApplyPositions writes the updates atomically. If any task is gone,
// soft-deleted or no longer at its From position the whole batch is rolled
// back with ErrStaleTask.
func (r *GormTaskRepository) ApplyPositions(updates []tasktree.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		return applyPositions(tx, updates)
	})
}

// Reparent applies renumber and then moves the task under a new parent at
// the given position, all in one transaction.
func (r *GormTaskRepository) Reparent(id uint64, parentID *uint64, position int64, renumber []tasktree.PositionUpdate) error {
	var parent interface{}
	if parentID != nil {
		parent = *parentID
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := applyPositions(tx, renumber); err != nil {
			return err
		}

		result := tx.Model(&models.Task{}).
			Where("id = ? AND is_deleted = ?", id, false).
			Updates(map[string]interface{}{
				"parent_id": parent,
				"position":  position,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleTask
		}
		return nil
	})
}

func applyPositions(tx *gorm.DB, updates []tasktree.PositionUpdate) error {
	for _, u := range updates {
		result := tx.Model(&models.Task{}).
			Where("id = ? AND is_deleted = ? AND position = ?", u.ID, false, u.From).
			Update("position", u.Position)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleTask
		}
	}
	return nil
}

// SoftDelete flags the given tasks deleted and drops their assignments
func (r *GormTaskRepository) SoftDelete(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("id IN ?", ids).
			Update("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Where("task_id IN ?", ids).Delete(&models.TaskAssignment{}).Error
	})
}

// AssignUsers assigns multiple users to a task
func (r *GormTaskRepository) AssignUsers(taskID uint64, userIDs []uint64) error {
	assignments := make([]models.TaskAssignment, len(userIDs))

	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{
			TaskID: taskID,
			UserID: userID,
		}
	}

	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": gorm.Expr("NULL")}),
		}).
		Create(&assignments).Error
}

// UnassignUsers removes user assignments from a task
func (r *GormTaskRepository) UnassignUsers(taskID uint64, userIDs []uint64) error {
	return r.db.Where("task_id = ? AND user_id IN ?", taskID, userIDs).
		Delete(&models.TaskAssignment{}).Error
}

// CountMembersByIDs counts how many of the given user IDs are members of the team
func (r *GormTaskRepository) CountMembersByIDs(userIDs []uint64, teamID uint64) (int64, error) {
	var count int64

	err := r.db.Model(&models.User{}).
		Joins("JOIN team_members ON users.id = team_members.user_id").
		Where("team_members.team_id = ? AND users.id IN ?", teamID, userIDs).
		Count(&count).Error

	return count, err
}
