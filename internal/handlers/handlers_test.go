package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-checklist-api/internal/constants"
	"github.com/yukikurage/team-checklist-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.CheckIn{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestTeam(t *testing.T, db *gorm.DB, name string, members map[uint64]models.TeamRole) *models.Team {
	t.Helper()
	team := &models.Team{
		Name:         name,
		JoinCode:     name + "_CODE",
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, db.Create(team).Error)

	for userID, role := range members {
		require.NoError(t, db.Create(&models.TeamMember{
			TeamID:   team.ID,
			UserID:   userID,
			Role:     role,
			JoinedAt: time.Now(),
		}).Error)
	}
	return team
}

// createAuthContext builds a test context for an authenticated user
func createAuthContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

// setTeamContext simulates RequireTeamAccess
func setTeamContext(c *gin.Context, team models.Team, member models.TeamMember) {
	c.Set(constants.ContextKeyTeam, team)
	c.Set(constants.ContextKeyTeamMember, member)
}

// setTaskContext simulates RequireTaskAccess
func setTaskContext(c *gin.Context, task models.Task) {
	c.Set(constants.ContextKeyTask, task)
}
