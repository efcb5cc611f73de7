package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/team-checklist-api/internal/constants"
	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrInvalidDayRange  = errors.New("days must be between 1 and 365")
)

// CheckInService records daily check-ins and reports participation.
type CheckInService struct {
	checkInRepo repository.CheckInRepository
	teamRepo    repository.TeamRepository
	now         func() time.Time
}

// NewCheckInService creates a new CheckInService.
func NewCheckInService(checkInRepo repository.CheckInRepository, teamRepo repository.TeamRepository) *CheckInService {
	return &CheckInService{
		checkInRepo: checkInRepo,
		teamRepo:    teamRepo,
		now:         time.Now,
	}
}

// CheckIn records today's check-in for the user.
func (s *CheckInService) CheckIn(teamID, userID uint64, note string) (*models.CheckIn, error) {
	day := s.now().Format(constants.CheckInDayLayout)

	if _, err := s.checkInRepo.FindForDay(teamID, userID, day); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up check-in: %w", err)
	}

	checkIn := &models.CheckIn{
		TeamID: teamID,
		UserID: userID,
		Day:    day,
		Note:   strings.TrimSpace(note),
	}
	if err := s.checkInRepo.Create(checkIn); err != nil {
		if errors.Is(err, repository.ErrDuplicateCheckIn) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}

	return checkIn, nil
}

// HistoryInput represents filters for the check-in history.
type HistoryInput struct {
	TeamID   uint64
	UserID   *uint64
	Page     int
	PageSize int
}

// History returns check-ins newest first and the total count.
func (s *CheckInService) History(input HistoryInput) ([]models.CheckIn, int64, error) {
	checkIns, total, err := s.checkInRepo.List(repository.CheckInFilter{
		TeamID:   input.TeamID,
		UserID:   input.UserID,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return checkIns, total, nil
}

// MemberParticipation is the number of days a member checked in within the window.
type MemberParticipation struct {
	Member      models.TeamMember
	CheckInDays int64
}

// ParticipationReport covers the days from FromDay to ToDay, both included.
type ParticipationReport struct {
	FromDay string
	ToDay   string
	Days    int
	Members []MemberParticipation
}

// Participation reports check-in counts for every current member over the
// last days days, today included.
func (s *CheckInService) Participation(teamID uint64, days int) (*ParticipationReport, error) {
	if days < 1 || days > constants.MaxParticipationDays {
		return nil, ErrInvalidDayRange
	}

	today := s.now()
	toDay := today.Format(constants.CheckInDayLayout)
	fromDay := today.AddDate(0, 0, -(days - 1)).Format(constants.CheckInDayLayout)

	members, err := s.teamRepo.ListMembers(teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}

	counts, err := s.checkInRepo.CountByUser(teamID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("failed to count check-ins: %w", err)
	}

	byUser := make(map[uint64]int64, len(counts))
	for _, c := range counts {
		byUser[c.UserID] = c.Days
	}

	report := &ParticipationReport{
		FromDay: fromDay,
		ToDay:   toDay,
		Days:    days,
		Members: make([]MemberParticipation, len(members)),
	}
	for i, m := range members {
		report.Members[i] = MemberParticipation{
			Member:      m,
			CheckInDays: byUser[m.UserID],
		}
	}
	return report, nil
}
