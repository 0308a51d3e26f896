package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ahmad-watoo/ams-api/internal/models"
	"github.com/ahmad-watoo/ams-api/internal/service"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
	"github.com/ahmad-watoo/ams-api/pkg/response"
)

// PayrollHandler exposes salary structure and salary run endpoints.
type PayrollHandler struct {
	payroll *service.PayrollService
}

// NewPayrollHandler constructs PayrollHandler.
func NewPayrollHandler(payroll *service.PayrollService) *PayrollHandler {
	return &PayrollHandler{payroll: payroll}
}

// GetActiveStructure godoc
// @Summary Active salary structure of an employee
// @Tags Payroll
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/salary-structure [get]
func (h *PayrollHandler) GetActiveStructure(c *gin.Context) {
	structure, err := h.payroll.GetActiveStructure(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// ListStructures godoc
// @Summary Salary structure history of an employee
// @Tags Payroll
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/salary-structures [get]
func (h *PayrollHandler) ListStructures(c *gin.Context) {
	structures, err := h.payroll.ListStructures(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structures, nil)
}

// CreateStructure godoc
// @Summary Activate a salary structure
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body service.CreateStructureRequest true "Structure payload"
// @Success 201 {object} response.Envelope
// @Router /payroll/structures [post]
func (h *PayrollHandler) CreateStructure(c *gin.Context) {
	var req service.CreateStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	structure, err := h.payroll.CreateStructure(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, structure)
}

// Process godoc
// @Summary Run payroll for an employee and period
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body service.ProcessSalaryRequest true "Salary run payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payroll/process [post]
func (h *PayrollHandler) Process(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ProcessSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	processing, err := h.payroll.ProcessSalary(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, processing)
}

// MarkProcessed godoc
// @Summary Confirm a pending salary run as processed
// @Tags Payroll
// @Produce json
// @Param id path string true "Salary run ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /payroll/runs/{id}/process [post]
func (h *PayrollHandler) MarkProcessed(c *gin.Context) {
	processing, err := h.payroll.MarkProcessed(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, processing, nil)
}

// List godoc
// @Summary List salary runs
// @Tags Payroll
// @Produce json
// @Param employeeId query string false "Filter by employee"
// @Param period query string false "Filter by period"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payroll/runs [get]
func (h *PayrollHandler) List(c *gin.Context) {
	var filter models.ProcessingFilter
	filter.EmployeeID = c.Query("employeeId")
	filter.Period = c.Query("period")
	filter.Status = c.Query("status")
	filter.Page, filter.PageSize = pageParams(c)

	processings, pagination, err := h.payroll.ListProcessings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, processings, pagination)
}

// Approve godoc
// @Summary Approve a processed salary run
// @Tags Payroll
// @Produce json
// @Param id path string true "Salary run ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /payroll/runs/{id}/approve [post]
func (h *PayrollHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	processing, err := h.payroll.Approve(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, processing, nil)
}

// MarkPaid godoc
// @Summary Mark an approved salary run as paid
// @Tags Payroll
// @Produce json
// @Param id path string true "Salary run ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /payroll/runs/{id}/pay [post]
func (h *PayrollHandler) MarkPaid(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	processing, err := h.payroll.MarkPaid(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, processing, nil)
}
