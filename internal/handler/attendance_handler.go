package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldside/clubcal-api/internal/middleware"
	"github.com/fieldside/clubcal-api/internal/models"
	"github.com/fieldside/clubcal-api/internal/service"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
	"github.com/fieldside/clubcal-api/pkg/response"
)

// AttendanceHandler manages response registration and transfers.
type AttendanceHandler struct {
	service    *service.AttendanceService
	schedules  *service.ScheduleService
	visibility *service.VisibilityService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(svc *service.AttendanceService, schedules *service.ScheduleService, visibility *service.VisibilityService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, schedules: schedules, visibility: visibility}
}

// SetStatus godoc
// @Summary Register or update a response to a schedule instance
// @Tags Attendances
// @Accept json
// @Produce json
// @Param payload body service.SetStatusRequest true "Response payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendances [post]
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}

	// Students respond only for themselves and only on instances that are
	// visible to them and open for self-registration.
	if claims.Role == models.RoleStudent {
		req.StudentID = claims.UserID
		schedule, err := h.schedules.Get(c.Request.Context(), claims.TeamID, req.ScheduleID)
		if err != nil {
			response.Error(c, err)
			return
		}
		ok, err := h.visibility.CanRespond(c.Request.Context(), claims.UserID, schedule)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !ok {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
	}

	actorID := claims.UserID
	att, err := h.service.SetStatus(c.Request.Context(), claims.TeamID, &actorID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, att, nil)
}

// Transfer godoc
// @Summary Move a response row to a same-day instance
// @Tags Attendances
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body service.TransferRequest true "Transfer payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendances/{id}/transfer [post]
func (h *AttendanceHandler) Transfer(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}

	actorID := claims.UserID
	att, err := h.service.Transfer(c.Request.Context(), claims.TeamID, &actorID, c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, att, nil)
}

// Roster godoc
// @Summary List responses and counts for one instance
// @Tags Attendances
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/{id}/attendances [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	rows, counts, err := h.service.Roster(c.Request.Context(), claims.TeamID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"attendances": rows, "counts": counts}, nil)
}
