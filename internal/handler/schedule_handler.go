package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldside/clubcal-api/internal/middleware"
	"github.com/fieldside/clubcal-api/internal/models"
	"github.com/fieldside/clubcal-api/internal/service"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
	"github.com/fieldside/clubcal-api/pkg/response"
)

// ScheduleHandler manages schedule endpoints.
type ScheduleHandler struct {
	service    *service.ScheduleService
	visibility *service.VisibilityService
	metrics    *service.MetricsService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ScheduleService, visibility *service.VisibilityService, metrics *service.MetricsService) *ScheduleHandler {
	return &ScheduleHandler{service: svc, visibility: visibility, metrics: metrics}
}

// List godoc
// @Summary List schedule instances in a date range
// @Tags Schedules
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
		return
	}

	instances, err := h.service.ListInstances(c.Request.Context(), claims.TeamID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	if claims.Role == models.RoleStudent {
		instances, err = h.visibility.FilterInstances(c.Request.Context(), claims.UserID, instances)
		if err != nil {
			response.Error(c, err)
			return
		}
	}

	h.metrics.RecordInstancesServed(len(instances))
	response.JSON(c, http.StatusOK, instances, nil)
}

// Get godoc
// @Summary Get one schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	schedule, err := h.service.Get(c.Request.Context(), claims.TeamID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create a schedule or recurring series
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	req.TeamID = claims.TeamID

	schedule, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update one schedule row
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.UpdateScheduleRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}

	schedule, err := h.service.Update(c.Request.Context(), claims.TeamID, c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete schedule occurrences
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Param scope query string false "single, forward, or series" default(single)
// @Success 204
// @Security BearerAuth
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	scope := models.DeleteScope(c.DefaultQuery("scope", string(models.DeleteScopeSingle)))

	if err := h.service.Delete(c.Request.Context(), claims.TeamID, c.Param("id"), scope); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
