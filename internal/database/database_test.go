package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-checklist-api/internal/config"
	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/utils"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBName: ":memory:"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestConnectAndMigrate(t *testing.T) {
	db, err := Connect(&config.Config{DBDriver: "sqlite", DBName: ":memory:", DBLogLevel: "silent"})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	// Second run must skip the existing indexes.
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable(&models.CheckIn{}))
	assert.True(t, db.Migrator().HasIndex("tasks", "idx_tasks_team_parent_position"))
}

func TestPaginate(t *testing.T) {
	db, err := Connect(&config.Config{DBDriver: "sqlite", DBName: ":memory:", DBLogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.User{Username: string(rune('a' + i)), PasswordHash: "x"}).Error)
	}

	var users []models.User
	err = db.Order("id").Scopes(Paginate(utils.PaginationParams{Page: 2, Limit: 2, Offset: 2})).Find(&users).Error
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "c", users[0].Username)
}

func TestDayRange(t *testing.T) {
	db, err := Connect(&config.Config{DBDriver: "sqlite", DBName: ":memory:", DBLogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	user := models.User{Username: "alice", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	team := models.Team{Name: "alpha", JoinCode: "alpha-code", PasswordHash: "x"}
	require.NoError(t, db.Create(&team).Error)
	for _, day := range []string{"2024-02-28", "2024-03-01", "2024-03-10"} {
		require.NoError(t, db.Create(&models.CheckIn{TeamID: team.ID, UserID: user.ID, Day: day}).Error)
	}

	count := func(from, to string) int64 {
		var n int64
		require.NoError(t, db.Model(&models.CheckIn{}).Scopes(DayRange(from, to)).Count(&n).Error)
		return n
	}

	assert.Equal(t, int64(3), count("", ""))
	assert.Equal(t, int64(2), count("2024-03-01", ""))
	assert.Equal(t, int64(2), count("", "2024-03-01"))
	assert.Equal(t, int64(1), count("2024-03-01", "2024-03-09"))
}
