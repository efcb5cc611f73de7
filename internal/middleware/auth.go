package middleware

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-checklist-api/internal/constants"
	apierrors "github.com/yukikurage/team-checklist-api/internal/errors"
	"github.com/yukikurage/team-checklist-api/internal/repository"
	"gorm.io/gorm"
)

// RequireAuth admits requests whose session names an existing user and puts
// the user id in the context. A session left behind by a removed account is
// cleared.
func RequireAuth(userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := sessionUserID(session.Get(constants.ContextKeyUserID))
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if _, err := userRepo.FindByID(userID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				_ = c.Error(err)
				apierrors.InternalError(c, "Failed to load session user")
				c.Abort()
				return
			}
			session.Clear()
			_ = session.Save()
			apierrors.Unauthorized(c, "Session is no longer valid")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint64)
	return id, ok
}

// sessionUserID normalises the stored id; older sessions may hold other
// integer types after a gob round trip.
func sessionUserID(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int:
		return uint64(v), v > 0
	case int64:
		return uint64(v), v > 0
	default:
		return 0, false
	}
}
