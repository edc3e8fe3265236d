package handler

import (
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/fieldside/clubcal-api/internal/middleware"
	"github.com/fieldside/clubcal-api/internal/service"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
	"github.com/fieldside/clubcal-api/pkg/response"
)

// StatementHandler manages asynchronous tuition statement exports.
type StatementHandler struct {
	service *service.StatementService
}

// NewStatementHandler constructs handler.
func NewStatementHandler(svc *service.StatementService) *StatementHandler {
	return &StatementHandler{service: svc}
}

type enqueueStatementRequest struct {
	Year   int    `json:"year" binding:"required"`
	Month  int    `json:"month" binding:"required"`
	Format string `json:"format" binding:"required"`
}

// Enqueue godoc
// @Summary Queue a monthly statement render
// @Tags Statements
// @Accept json
// @Produce json
// @Param payload body enqueueStatementRequest true "Month and format (csv or pdf)"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /tuition-payments/statements [post]
func (h *StatementHandler) Enqueue(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req enqueueStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	exp, err := h.service.Enqueue(c.Request.Context(), claims.TeamID, req.Year, req.Month, req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, exp, nil)
}

// Get godoc
// @Summary Poll one statement export
// @Tags Statements
// @Produce json
// @Param id path string true "Export ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /tuition-payments/statements/{id} [get]
func (h *StatementHandler) Get(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	exp, err := h.service.Get(claims.TeamID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exp, nil)
}

// Download godoc
// @Summary Download a rendered statement via signed token
// @Tags Statements
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /tuition-payments/statements/download [get]
func (h *StatementHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, relPath, err := h.service.OpenByToken(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `attachment; filename="`+path.Base(relPath)+`"`)
	c.Header("Content-Type", contentTypeFor(relPath))
	if _, err := io.Copy(c.Writer, file); err != nil {
		c.Abort()
	}
}

func contentTypeFor(name string) string {
	switch path.Ext(name) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}
