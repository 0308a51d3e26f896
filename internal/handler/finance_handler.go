package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ahmad-watoo/ams-api/internal/models"
	"github.com/ahmad-watoo/ams-api/internal/service"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
	"github.com/ahmad-watoo/ams-api/pkg/export"
	"github.com/ahmad-watoo/ams-api/pkg/response"
)

// FinanceHandler exposes fee structure and payment endpoints.
type FinanceHandler struct {
	finance *service.FinanceService
	csv     *export.CSVExporter
}

// NewFinanceHandler constructs FinanceHandler.
func NewFinanceHandler(finance *service.FinanceService, csv *export.CSVExporter) *FinanceHandler {
	return &FinanceHandler{finance: finance, csv: csv}
}

// ListFeeStructures godoc
// @Summary List fee structures
// @Tags Finance
// @Produce json
// @Param programId query string false "Filter by program"
// @Success 200 {object} response.Envelope
// @Router /fees/structures [get]
func (h *FinanceHandler) ListFeeStructures(c *gin.Context) {
	structures, err := h.finance.ListFeeStructures(c.Request.Context(), c.Query("programId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structures, nil)
}

// GetFeeStructure godoc
// @Summary Get fee structure for a program and semester
// @Tags Finance
// @Produce json
// @Param programId query string true "Program ID"
// @Param semester query int true "Semester"
// @Success 200 {object} response.Envelope
// @Router /fees/structure [get]
func (h *FinanceHandler) GetFeeStructure(c *gin.Context) {
	semester, _ := strconv.Atoi(c.Query("semester"))
	structure, err := h.finance.GetFeeStructure(c.Request.Context(), c.Query("programId"), semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// UpsertFeeStructure godoc
// @Summary Create or replace a fee structure
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body service.UpsertFeeStructureRequest true "Fee structure payload"
// @Success 200 {object} response.Envelope
// @Router /fees/structures [put]
func (h *FinanceHandler) UpsertFeeStructure(c *gin.Context) {
	var req service.UpsertFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	structure, err := h.finance.UpsertFeeStructure(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// ListPayments godoc
// @Summary List fee payments
// @Tags Finance
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param period query string false "Filter by period"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fees/payments [get]
func (h *FinanceHandler) ListPayments(c *gin.Context) {
	var filter models.PaymentFilter
	filter.StudentID = c.Query("studentId")
	filter.Period = c.Query("period")
	filter.Page, filter.PageSize = pageParams(c)

	payments, pagination, err := h.finance.ListPayments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// ExportPayments godoc
// @Summary Export fee payments as CSV
// @Tags Finance
// @Produce text/csv
// @Param studentId query string false "Filter by student"
// @Param period query string false "Filter by period"
// @Success 200 {string} string "CSV"
// @Router /fees/payments/export [get]
func (h *FinanceHandler) ExportPayments(c *gin.Context) {
	var filter models.PaymentFilter
	filter.StudentID = c.Query("studentId")
	filter.Period = c.Query("period")

	dataset, err := h.finance.ExportPayments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.csv.Render(dataset)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render export"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="fee-payments.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// RecordPayment godoc
// @Summary Record a fee payment
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body service.RecordPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /fees/payments [post]
func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.finance.RecordPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}
