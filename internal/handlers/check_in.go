package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-checklist-api/internal/constants"
	"github.com/yukikurage/team-checklist-api/internal/dto"
	apierrors "github.com/yukikurage/team-checklist-api/internal/errors"
	"github.com/yukikurage/team-checklist-api/internal/middleware"
	"github.com/yukikurage/team-checklist-api/internal/services"
	"github.com/yukikurage/team-checklist-api/internal/utils"
)

// CheckInHandler serves daily check-ins and participation reports.
type CheckInHandler struct {
	checkInService *services.CheckInService
}

// NewCheckInHandler creates a new CheckInHandler.
func NewCheckInHandler(checkInService *services.CheckInService) *CheckInHandler {
	return &CheckInHandler{
		checkInService: checkInService,
	}
}

// CheckIn records today's check-in for the caller
func (h *CheckInHandler) CheckIn(c *gin.Context) {
	member, ok := middleware.GetTeamMember(c)
	if !ok {
		apierrors.InternalError(c, "Team membership not found in context")
		return
	}

	type CheckInRequest struct {
		Note string `json:"note" binding:"max=1000"`
	}

	var req CheckInRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	checkIn, err := h.checkInService.CheckIn(member.TeamID, member.UserID, req.Note)
	if err != nil {
		respondCheckInError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCheckInDTO(*checkIn))
}

// ListCheckIns returns the team's check-in history, newest first.
// Pass user_id to restrict it to one member.
func (h *CheckInHandler) ListCheckIns(c *gin.Context) {
	member, ok := middleware.GetTeamMember(c)
	if !ok {
		apierrors.InternalError(c, "Team membership not found in context")
		return
	}

	var userID *uint64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid user_id")
			return
		}
		userID = &id
	}

	params := utils.GetPaginationParams(c)

	checkIns, total, err := h.checkInService.History(services.HistoryInput{
		TeamID:   member.TeamID,
		UserID:   userID,
		Page:     params.Page,
		PageSize: params.Limit,
	})
	if err != nil {
		respondCheckInError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCheckInListResponse(checkIns, params, total))
}

// Participation reports how many of the last N days each member checked in
func (h *CheckInHandler) Participation(c *gin.Context) {
	member, ok := middleware.GetTeamMember(c)
	if !ok {
		apierrors.InternalError(c, "Team membership not found in context")
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", strconv.Itoa(constants.DefaultParticipationDays)))
	if err != nil {
		apierrors.BadRequest(c, "Invalid days")
		return
	}

	report, err := h.checkInService.Participation(member.TeamID, days)
	if err != nil {
		respondCheckInError(c, err)
		return
	}

	rows := make([]dto.ParticipationRow, len(report.Members))
	for i, m := range report.Members {
		rows[i] = dto.ParticipationRow{Member: m.Member, CheckInDays: m.CheckInDays}
	}

	c.JSON(http.StatusOK, dto.ToParticipationResponse(report.FromDay, report.ToDay, report.Days, rows))
}

func respondCheckInError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAlreadyCheckedIn):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidDayRange):
		apierrors.BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "Internal server error")
	}
}
