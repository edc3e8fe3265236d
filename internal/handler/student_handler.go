package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldside/clubcal-api/internal/middleware"
	"github.com/fieldside/clubcal-api/internal/service"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
	"github.com/fieldside/clubcal-api/pkg/response"
)

// StudentHandler manages the player roster endpoints.
type StudentHandler struct {
	service *service.StudentService
}

// NewStudentHandler constructs handler.
func NewStudentHandler(svc *service.StudentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List team players
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	students, err := h.service.List(c.Request.Context(), claims.TeamID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Get godoc
// @Summary Get one player
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	student, err := h.service.Get(c.Request.Context(), claims.TeamID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// UpdatePlayerType godoc
// @Summary Change a player's billing classification
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdatePlayerTypeRequest true "New player type"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/player-type [put]
func (h *StudentHandler) UpdatePlayerType(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.UpdatePlayerTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	actorID := claims.UserID
	student, err := h.service.UpdatePlayerType(c.Request.Context(), claims.TeamID, c.Param("id"), &actorID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// ReplaceCategories godoc
// @Summary Rewrite a player's category subscriptions
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.ReplaceCategoriesRequest true "Category ids"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/categories [put]
func (h *StudentHandler) ReplaceCategories(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.ReplaceCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	student, err := h.service.ReplaceCategories(c.Request.Context(), claims.TeamID, c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}
