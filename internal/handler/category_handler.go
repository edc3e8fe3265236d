package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldside/clubcal-api/internal/middleware"
	"github.com/fieldside/clubcal-api/internal/service"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
	"github.com/fieldside/clubcal-api/pkg/response"
)

// CategoryHandler manages the category registry endpoints.
type CategoryHandler struct {
	service *service.CategoryService
}

// NewCategoryHandler constructs handler.
func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: svc}
}

// List godoc
// @Summary List categories in display order
// @Tags Categories
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	categories, err := h.service.List(c.Request.Context(), claims.TeamID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// Create godoc
// @Summary Create a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param payload body service.CreateCategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	category, err := h.service.Create(c.Request.Context(), claims.TeamID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// Update godoc
// @Summary Update a category
// @Tags Categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body service.UpdateCategoryRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	category, err := h.service.Update(c.Request.Context(), claims.TeamID, c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// Delete godoc
// @Summary Delete a category
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 204
// @Security BearerAuth
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	if err := h.service.Delete(c.Request.Context(), claims.TeamID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reorder godoc
// @Summary Atomically rewrite the category display order
// @Tags Categories
// @Accept json
// @Produce json
// @Param payload body service.ReorderRequest true "Full desired ordering"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /categories/reorder [put]
func (h *CategoryHandler) Reorder(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	categories, err := h.service.Reorder(c.Request.Context(), claims.TeamID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}
