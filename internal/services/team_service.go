package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/team-checklist-api/internal/constants"
	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/repository"
	"github.com/yukikurage/team-checklist-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound            = errors.New("team not found")
	ErrInvalidTeamName         = errors.New("team name cannot be empty")
	ErrTeamPasswordTooShort    = errors.New("team password too short")
	ErrJoinCodeGenerationFail  = errors.New("failed to generate join code")
	ErrInvalidJoinCredentials  = errors.New("invalid join code or team password")
	ErrAlreadyTeamMember       = errors.New("user is already a member of this team")
	ErrLastOwnerCannotLeave    = errors.New("the last owner cannot leave the team")
	ErrFailedToCreateTeam      = errors.New("failed to create team")
	ErrFailedToCreateTeamOwner = errors.New("failed to add owner to team")
)

// TeamService provides business logic for team operations.
type TeamService struct {
	teamRepo repository.TeamRepository
}

// NewTeamService creates a new TeamService.
func NewTeamService(teamRepo repository.TeamRepository) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
	}
}

// CreateTeamInput represents parameters to create a new team.
type CreateTeamInput struct {
	Name     string
	Password string
	OwnerID  uint64
}

// CreateTeam creates a new team with the caller as owner.
func (s *TeamService) CreateTeam(input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidTeamName
	}

	hash, err := hashTeamPassword(input.Password)
	if err != nil {
		return nil, err
	}

	joinCode, err := utils.GenerateJoinCode()
	if err != nil {
		return nil, ErrJoinCodeGenerationFail
	}

	team := &models.Team{
		Name:         name,
		JoinCode:     joinCode,
		PasswordHash: hash,
	}
	owner := &models.TeamMember{
		UserID:   input.OwnerID,
		Role:     models.RoleOwner,
		JoinedAt: time.Now(),
	}

	if err := s.teamRepo.Create(team, owner); err != nil {
		switch {
		case errors.Is(err, repository.ErrCreateTeam):
			return nil, ErrFailedToCreateTeam
		case errors.Is(err, repository.ErrCreateTeamOwner):
			return nil, ErrFailedToCreateTeamOwner
		default:
			return nil, fmt.Errorf("failed to create team: %w", err)
		}
	}

	return team, nil
}

// ListTeamsForUser returns the memberships of a user with their teams loaded.
func (s *TeamService) ListTeamsForUser(userID uint64) ([]models.TeamMember, error) {
	memberships, err := s.teamRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return memberships, nil
}

// GetTeamWithMembers returns a team and all of its members.
func (s *TeamService) GetTeamWithMembers(teamID uint64) (*models.Team, []models.TeamMember, error) {
	team, err := s.findTeam(teamID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.teamRepo.ListMembers(teamID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list team members: %w", err)
	}

	return team, members, nil
}

// UpdateTeamInput holds the optional fields an owner can change.
type UpdateTeamInput struct {
	Name     *string
	Password *string
}

// UpdateTeam renames a team and/or changes its shared password.
func (s *TeamService) UpdateTeam(teamID uint64, input UpdateTeamInput) (*models.Team, error) {
	team, err := s.findTeam(teamID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidTeamName
		}
		team.Name = name
	}
	if input.Password != nil {
		hash, err := hashTeamPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		team.PasswordHash = hash
	}

	if err := s.teamRepo.Update(team); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}

	return team, nil
}

// DeleteTeam removes a team.
func (s *TeamService) DeleteTeam(teamID uint64) error {
	if _, err := s.findTeam(teamID); err != nil {
		return err
	}

	if err := s.teamRepo.Delete(teamID); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	return nil
}

// JoinTeamInput holds the shared credentials of a team.
type JoinTeamInput struct {
	UserID   uint64
	JoinCode string
	Password string
}

// JoinTeam adds a user to the team identified by join code and shared password.
func (s *TeamService) JoinTeam(input JoinTeamInput) (*models.Team, error) {
	team, err := s.teamRepo.FindByJoinCode(strings.TrimSpace(input.JoinCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidJoinCredentials
		}
		return nil, fmt.Errorf("failed to find team by join code: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(team.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidJoinCredentials
	}

	if _, err := s.teamRepo.FindMember(team.ID, input.UserID); err == nil {
		return nil, ErrAlreadyTeamMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.TeamMember{
		TeamID:   team.ID,
		UserID:   input.UserID,
		Role:     models.RoleMember,
		JoinedAt: time.Now(),
	}

	if err := s.teamRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member to team: %w", err)
	}

	return team, nil
}

// RegenerateJoinCode generates a new join code for the team.
func (s *TeamService) RegenerateJoinCode(teamID uint64) (*models.Team, error) {
	team, err := s.findTeam(teamID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateJoinCode()
	if err != nil {
		return nil, ErrJoinCodeGenerationFail
	}

	team.JoinCode = code
	if err := s.teamRepo.Update(team); err != nil {
		return nil, fmt.Errorf("failed to update join code: %w", err)
	}

	return team, nil
}

// LeaveTeam removes the user from the team. The only owner cannot leave.
func (s *TeamService) LeaveTeam(teamID, userID uint64) error {
	member, err := s.teamRepo.FindMember(teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotTeamMember
		}
		return fmt.Errorf("failed to find team member: %w", err)
	}

	if member.Role == models.RoleOwner {
		owners, err := s.teamRepo.CountOwners(teamID)
		if err != nil {
			return fmt.Errorf("failed to count owners: %w", err)
		}
		if owners <= 1 {
			return ErrLastOwnerCannotLeave
		}
	}

	if err := s.teamRepo.RemoveMember(teamID, userID); err != nil {
		return fmt.Errorf("failed to leave team: %w", err)
	}

	return nil
}

func (s *TeamService) findTeam(teamID uint64) (*models.Team, error) {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}

func hashTeamPassword(password string) (string, error) {
	if len(password) < constants.MinTeamPasswordLength {
		return "", ErrTeamPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hash), nil
}
