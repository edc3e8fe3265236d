package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldside/clubcal-api/internal/middleware"
	"github.com/fieldside/clubcal-api/internal/service"
	appErrors "github.com/fieldside/clubcal-api/pkg/errors"
	"github.com/fieldside/clubcal-api/pkg/response"
)

// TuitionHandler manages monthly billing endpoints.
type TuitionHandler struct {
	service *service.TuitionService
	metrics *service.MetricsService
}

// NewTuitionHandler constructs handler.
func NewTuitionHandler(svc *service.TuitionService, metrics *service.MetricsService) *TuitionHandler {
	return &TuitionHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary List payment rows for a month
// @Tags Tuition
// @Produce json
// @Param year query int true "Billing year"
// @Param month query int true "Billing month (1-12)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /tuition-payments [get]
func (h *TuitionHandler) List(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	year, month, err := yearMonthQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.List(c.Request.Context(), claims.TeamID, year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Generate godoc
// @Summary Generate the month's payment rows for all billable players
// @Tags Tuition
// @Accept json
// @Produce json
// @Param payload body service.GenerateRequest true "Billing month"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /tuition-payments/generate [post]
func (h *TuitionHandler) Generate(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), claims.TeamID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordBillingRun("generate")
	response.JSON(c, http.StatusOK, result, nil)
}

// ResetUnpaid godoc
// @Summary Delete unpaid rows and regenerate from current fees
// @Tags Tuition
// @Accept json
// @Produce json
// @Param payload body service.GenerateRequest true "Billing month"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /tuition-payments/reset-unpaid [post]
func (h *TuitionHandler) ResetUnpaid(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	result, err := h.service.ResetUnpaid(c.Request.Context(), claims.TeamID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordBillingRun("reset_unpaid")
	response.JSON(c, http.StatusOK, result, nil)
}

// Update godoc
// @Summary Edit fee components of one unpaid row
// @Tags Tuition
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body service.UpdatePaymentRequest true "Fee components"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /tuition-payments/{id} [put]
func (h *TuitionHandler) Update(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	var req service.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(appErrors.ErrValidation, err))
		return
	}
	row, err := h.service.Update(c.Request.Context(), claims.TeamID, c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// MarkPaid godoc
// @Summary Mark one payment row as settled
// @Tags Tuition
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /tuition-payments/{id}/mark-paid [post]
func (h *TuitionHandler) MarkPaid(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	row, err := h.service.MarkPaid(c.Request.Context(), claims.TeamID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

func yearMonthQuery(c *gin.Context) (int, int, error) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "year must be an integer")
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "month must be an integer")
	}
	return year, month, nil
}
