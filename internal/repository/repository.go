package repository

import (
	"errors"

	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/tasktree"
)

// ErrStaleTask is returned when a write targets a task that no longer exists,
// was soft-deleted or changed position after it was read. The surrounding transaction is rolled
// back so callers can recompute from fresh state.
var ErrStaleTask = errors.New("repository: task changed since it was read")

// ErrDuplicateCheckIn is returned when a member already checked in for the day.
var ErrDuplicateCheckIn = errors.New("repository: check-in already recorded for the day")

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create inserts a task with its creator assignment, after applying renumber
	Create(task *models.Task, renumber []tasktree.PositionUpdate) error

	// FindByID finds a task by ID with optional preloading, deleted tasks included
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// ListByTeam returns every task of a team ordered by parent and position
	ListByTeam(teamID uint64, includeDeleted bool, preload ...string) ([]models.Task, error)

	// ListTeamIDs returns the ids of teams owning at least one task
	ListTeamIDs() ([]uint64, error)

	// Update saves title, description and completion fields
	Update(task *models.Task) error

	// ApplyPositions writes all position updates in one transaction. Each
	// update only matches a row still at its From position.
	ApplyPositions(updates []tasktree.PositionUpdate) error

	// Reparent applies renumber and moves a task under a new parent in one transaction
	Reparent(id uint64, parentID *uint64, position int64, renumber []tasktree.PositionUpdate) error

	// SoftDelete flags the given tasks deleted and removes their assignments
	SoftDelete(ids []uint64) error

	// AssignUsers assigns multiple users to a task
	AssignUsers(taskID uint64, userIDs []uint64) error

	// UnassignUsers removes user assignments from a task
	UnassignUsers(taskID uint64, userIDs []uint64) error

	// CountMembersByIDs counts how many of the given user IDs are members of the team
	CountMembersByIDs(userIDs []uint64, teamID uint64) (int64, error)
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// Create creates a team together with its owner membership
	Create(team *models.Team, owner *models.TeamMember) error

	// FindByID finds a team by ID
	FindByID(id uint64) (*models.Team, error)

	// FindByJoinCode finds a team by join code
	FindByJoinCode(code string) (*models.Team, error)

	// Update updates a team
	Update(team *models.Team) error

	// Delete deletes a team and all related data
	Delete(id uint64) error

	// AddMember adds a member to a team
	AddMember(member *models.TeamMember) error

	// RemoveMember removes a member from a team
	RemoveMember(teamID, userID uint64) error

	// FindMember finds a specific team member
	FindMember(teamID, userID uint64) (*models.TeamMember, error)

	// CountOwners counts the owners of a team
	CountOwners(teamID uint64) (int64, error)

	// ListMembersByUserID lists all teams a user is a member of
	ListMembersByUserID(userID uint64) ([]models.TeamMember, error)

	// ListMembers lists all members of a team
	ListMembers(teamID uint64) ([]models.TeamMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}

// CheckInFilter holds filtering options for listing check-ins
type CheckInFilter struct {
	TeamID   uint64
	UserID   *uint64
	FromDay  string
	ToDay    string
	Page     int
	PageSize int
}

// ParticipationCount is the number of days a member checked in
type ParticipationCount struct {
	UserID uint64
	Days   int64
}

// CheckInRepository defines the interface for check-in data access
type CheckInRepository interface {
	// Create records a check-in, returning ErrDuplicateCheckIn when the
	// member already has one for that day
	Create(checkIn *models.CheckIn) error

	// FindForDay finds a member's check-in on a day
	FindForDay(teamID, userID uint64, day string) (*models.CheckIn, error)

	// List returns check-ins newest first with the total count
	List(filter CheckInFilter) ([]models.CheckIn, int64, error)

	// CountByUser returns check-in days per member within [fromDay, toDay]
	CountByUser(teamID uint64, fromDay, toDay string) ([]ParticipationCount, error)
}
