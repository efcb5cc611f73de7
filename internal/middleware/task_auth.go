package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-checklist-api/internal/constants"
	apierrors "github.com/yukikurage/team-checklist-api/internal/errors"
	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/repository"
)

// RequireTaskAccess checks if the user has access to a task.
// The user must be a member of the task's team and the task must not be deleted.
func RequireTaskAccess(taskRepo repository.TaskRepository, teamRepo repository.TeamRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.AbortWithError(c, http.StatusBadRequest, apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "Invalid task ID"))
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Authentication required"))
			return
		}

		task, err := taskRepo.FindByID(taskID, "Creator", "Team", "Assignments", "Assignments.User")
		if err != nil {
			abortLookup(c, err, "Task not found")
			return
		}
		if task.IsDeleted {
			apierrors.AbortWithError(c, http.StatusNotFound, apierrors.NewAPIError(apierrors.ErrCodeNotFound, "Task not found"))
			return
		}

		if _, err := teamRepo.FindMember(task.TeamID, userID); err != nil {
			// 404 instead of 403 to avoid leaking task existence
			abortLookup(c, err, "Task not found")
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// GetTask returns the task stored by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}
