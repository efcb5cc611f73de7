package repository

import (
	"errors"

	"github.com/yukikurage/team-checklist-api/internal/database"
	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/utils"
	"gorm.io/gorm"
)

// GormCheckInRepository is a GORM implementation of CheckInRepository
type GormCheckInRepository struct {
	db *gorm.DB
}

// NewCheckInRepository creates a new CheckInRepository
func NewCheckInRepository(db *gorm.DB) CheckInRepository {
	return &GormCheckInRepository{db: db}
}

// Create records a check-in. A concurrent check-in for the same day trips
// the unique index and is reported as ErrDuplicateCheckIn.
func (r *GormCheckInRepository) Create(checkIn *models.CheckIn) error {
	err := r.db.Create(checkIn).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCheckIn
	}
	// drivers without error translation surface the raw constraint error
	if _, findErr := r.FindForDay(checkIn.TeamID, checkIn.UserID, checkIn.Day); findErr == nil {
		return ErrDuplicateCheckIn
	}
	return err
}

// FindForDay finds a member's check-in on a day
func (r *GormCheckInRepository) FindForDay(teamID, userID uint64, day string) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	if err := r.db.Where("team_id = ? AND user_id = ? AND day = ?", teamID, userID, day).
		First(&checkIn).Error; err != nil {
		return nil, err
	}
	return &checkIn, nil
}

// List returns check-ins newest first with the total count
func (r *GormCheckInRepository) List(filter CheckInFilter) ([]models.CheckIn, int64, error) {
	query := r.db.Model(&models.CheckIn{}).Where("team_id = ?", filter.TeamID)

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	query = query.Scopes(database.DayRange(filter.FromDay, filter.ToDay))

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("day DESC").Order("id DESC").
		Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))

	var checkIns []models.CheckIn
	if err := listQuery.Preload("User").Find(&checkIns).Error; err != nil {
		return nil, 0, err
	}

	return checkIns, total, nil
}

// CountByUser returns check-in days per member within [fromDay, toDay]
func (r *GormCheckInRepository) CountByUser(teamID uint64, fromDay, toDay string) ([]ParticipationCount, error) {
	var counts []ParticipationCount
	err := r.db.Model(&models.CheckIn{}).
		Select("user_id, COUNT(*) AS days").
		Where("team_id = ?", teamID).
		Scopes(database.DayRange(fromDay, toDay)).
		Group("user_id").
		Order("user_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
