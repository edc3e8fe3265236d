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

// DocumentHandler manages shared team material endpoints.
type DocumentHandler struct {
	service *service.DocumentService
}

// NewDocumentHandler constructs handler.
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// List godoc
// @Summary List shared documents
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	studentID := ""
	if claims.Role == models.RoleStudent {
		studentID = claims.UserID
	}
	docs, err := h.service.List(c.Request.Context(), claims.TeamID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Create godoc
// @Summary Share a document with the team
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body service.CreateDocumentRequest true "Document metadata"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	doc, err := h.service.Create(c.Request.Context(), claims.TeamID, claims.UserID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Delete godoc
// @Summary Remove a shared document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 204
// @Security BearerAuth
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	if err := h.service.Delete(c.Request.Context(), claims.TeamID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
