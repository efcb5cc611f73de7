package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-checklist-api/internal/constants"
	apierrors "github.com/yukikurage/team-checklist-api/internal/errors"
	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/repository"
	"gorm.io/gorm"
)

// RequireTeamAccess checks that the user is a member of the team in the :id
// parameter and stores the team and membership in the context.
func RequireTeamAccess(teamRepo repository.TeamRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		teamID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.AbortWithError(c, http.StatusBadRequest, apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "Invalid team ID"))
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Authentication required"))
			return
		}

		team, err := teamRepo.FindByID(teamID)
		if err != nil {
			abortLookup(c, err, "Team not found")
			return
		}

		member, err := teamRepo.FindMember(teamID, userID)
		if err != nil {
			// 404 instead of 403 so team ids cannot be enumerated
			abortLookup(c, err, "Team not found")
			return
		}

		c.Set(constants.ContextKeyTeam, *team)
		c.Set(constants.ContextKeyTeamMember, *member)
		c.Next()
	}
}

// RequireTeamOwner checks that the membership loaded by RequireTeamAccess is an owner
func RequireTeamOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetTeamMember(c)
		if !ok {
			apierrors.AbortWithError(c, http.StatusForbidden, apierrors.NewAPIError(apierrors.ErrCodeForbidden, "Team access required"))
			return
		}

		if member.Role != models.RoleOwner {
			apierrors.AbortWithError(c, http.StatusForbidden, apierrors.NewAPIError(apierrors.ErrCodeForbidden, "Only team owners can perform this action"))
			return
		}

		c.Next()
	}
}

// GetTeam returns the team stored by RequireTeamAccess
func GetTeam(c *gin.Context) (models.Team, bool) {
	value, exists := c.Get(constants.ContextKeyTeam)
	if !exists {
		return models.Team{}, false
	}
	team, ok := value.(models.Team)
	return team, ok
}

// GetTeamMember returns the membership stored by RequireTeamAccess
func GetTeamMember(c *gin.Context) (models.TeamMember, bool) {
	value, exists := c.Get(constants.ContextKeyTeamMember)
	if !exists {
		return models.TeamMember{}, false
	}
	member, ok := value.(models.TeamMember)
	return member, ok
}

func abortLookup(c *gin.Context, err error, notFoundMessage string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierrors.AbortWithError(c, http.StatusNotFound, apierrors.NewAPIError(apierrors.ErrCodeNotFound, notFoundMessage))
		return
	}
	apierrors.AbortWithError(c, http.StatusInternalServerError, apierrors.NewAPIError(apierrors.ErrCodeInternalError, "Internal server error"))
}
