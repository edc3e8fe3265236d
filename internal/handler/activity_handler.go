package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldside/clubcal-api/internal/middleware"
	"github.com/fieldside/clubcal-api/internal/service"
	"github.com/fieldside/clubcal-api/pkg/response"
)

// ActivityHandler serves the team activity feed.
type ActivityHandler struct {
	service *service.ActivityService
}

// NewActivityHandler constructs handler.
func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// List godoc
// @Summary List recent team activity
// @Tags Activity
// @Produce json
// @Param limit query int false "Max entries" default(50)
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.service.ListRecent(c.Request.Context(), claims.TeamID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
