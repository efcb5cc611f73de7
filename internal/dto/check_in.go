package dto

import (
	"time"

	"github.com/yukikurage/team-checklist-api/internal/models"
	"github.com/yukikurage/team-checklist-api/internal/utils"
)

// CheckInDTO represents a check-in in API responses
type CheckInDTO struct {
	ID        uint64    `json:"id"`
	TeamID    uint64    `json:"team_id"`
	Day       string    `json:"day"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	User      *UserDTO  `json:"user,omitempty"`
}

// CheckInListResponse represents a paginated check-in history
type CheckInListResponse struct {
	CheckIns   []CheckInDTO             `json:"check_ins"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ParticipationDTO is one member's check-in count over the window
type ParticipationDTO struct {
	User        UserDTO         `json:"user"`
	Role        models.TeamRole `json:"role"`
	CheckInDays int64           `json:"check_in_days"`
	Rate        float64         `json:"rate"`
}

// ParticipationResponse reports participation for every member of a team
type ParticipationResponse struct {
	FromDay string             `json:"from_day"`
	ToDay   string             `json:"to_day"`
	Days    int                `json:"days"`
	Members []ParticipationDTO `json:"members"`
}

// ToCheckInDTO converts a CheckIn model to CheckInDTO
func ToCheckInDTO(checkIn models.CheckIn) CheckInDTO {
	dto := CheckInDTO{
		ID:        checkIn.ID,
		TeamID:    checkIn.TeamID,
		Day:       checkIn.Day,
		Note:      checkIn.Note,
		CreatedAt: checkIn.CreatedAt,
	}

	if checkIn.User.ID != 0 {
		user := ToUserDTO(checkIn.User)
		dto.User = &user
	}

	return dto
}

// ToCheckInListResponse converts check-ins to a paginated response
func ToCheckInListResponse(checkIns []models.CheckIn, params utils.PaginationParams, total int64) CheckInListResponse {
	items := make([]CheckInDTO, len(checkIns))
	for i, checkIn := range checkIns {
		items[i] = ToCheckInDTO(checkIn)
	}

	return CheckInListResponse{
		CheckIns: items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ParticipationRow is the per-member input of ToParticipationResponse
type ParticipationRow struct {
	Member      models.TeamMember
	CheckInDays int64
}

// ToParticipationResponse builds the participation report for a window of days
func ToParticipationResponse(fromDay, toDay string, days int, rows []ParticipationRow) ParticipationResponse {
	members := make([]ParticipationDTO, len(rows))
	for i, row := range rows {
		rate := 0.0
		if days > 0 {
			rate = float64(row.CheckInDays) / float64(days)
		}
		members[i] = ParticipationDTO{
			User:        ToUserDTO(row.Member.User),
			Role:        row.Member.Role,
			CheckInDays: row.CheckInDays,
			Rate:        rate,
		}
	}

	return ParticipationResponse{
		FromDay: fromDay,
		ToDay:   toDay,
		Days:    days,
		Members: members,
	}
}
