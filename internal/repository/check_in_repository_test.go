package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-checklist-api/internal/models"
)

func TestCheckInRepository_CreateRejectsSecondCheckInForDay(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckInRepository(db)
	user := createUser(t, db, "alice")
	team := createTeam(t, db, "alpha", user)

	first := &models.CheckIn{TeamID: team.ID, UserID: user.ID, Day: "2026-10-15"}
	require.NoError(t, repo.Create(first))

	second := &models.CheckIn{TeamID: team.ID, UserID: user.ID, Day: "2026-10-15", Note: "again"}
	require.ErrorIs(t, repo.Create(second), ErrDuplicateCheckIn)

	nextDay := &models.CheckIn{TeamID: team.ID, UserID: user.ID, Day: "2026-10-16"}
	require.NoError(t, repo.Create(nextDay))

	_, total, err := repo.List(CheckInFilter{TeamID: team.ID, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
