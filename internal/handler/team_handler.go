package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldside/clubcal-api/internal/middleware"
	"github.com/fieldside/clubcal-api/internal/service"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
	"github.com/fieldside/clubcal-api/pkg/response"
)

// TeamHandler exposes the team fee configuration.
type TeamHandler struct {
	service *service.TeamService
}

// NewTeamHandler constructs handler.
func NewTeamHandler(svc *service.TeamService) *TeamHandler {
	return &TeamHandler{service: svc}
}

// Get godoc
// @Summary Get the caller's team and fee configuration
// @Tags Team
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /team [get]
func (h *TeamHandler) Get(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	team, err := h.service.Get(c.Request.Context(), claims.TeamID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}

// UpdateFees godoc
// @Summary Replace the team fee configuration
// @Tags Team
// @Accept json
// @Produce json
// @Param payload body service.UpdateFeesRequest true "Fee configuration"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /team/fees [put]
func (h *TeamHandler) UpdateFees(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.UpdateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	actorID := claims.UserID
	team, err := h.service.UpdateFees(c.Request.Context(), claims.TeamID, &actorID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, team, nil)
}
