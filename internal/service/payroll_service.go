package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	"github.com/ahmad-watoo/ams-api/internal/repository"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type payrollRepository interface {
	FindActiveStructure(ctx context.Context, employeeID string) (*models.SalaryStructure, error)
	ListStructures(ctx context.Context, employeeID string) ([]models.SalaryStructure, error)
	CreateStructure(ctx context.Context, structure *models.SalaryStructure) error
	CreateProcessing(ctx context.Context, processing *models.SalaryProcessing) error
	FindProcessingByID(ctx context.Context, id string) (*models.SalaryProcessing, error)
	ListProcessings(ctx context.Context, filter models.ProcessingFilter) ([]models.SalaryProcessing, int, error)
	MarkProcessed(ctx context.Context, id string, processedAt time.Time) error
	Approve(ctx context.Context, id, approvedBy string, approvedAt time.Time) error
	MarkPaid(ctx context.Context, id, paidBy string, paidAt time.Time) error
}

// CreateStructureRequest holds the pay composition for an employee.
type CreateStructureRequest struct {
	EmployeeID     string    `json:"employee_id" validate:"required"`
	BasicSalary    float64   `json:"basic_salary" validate:"required,gt=0"`
	HouseRentAllow float64   `json:"house_rent_allowance" validate:"min=0"`
	MedicalAllow   float64   `json:"medical_allowance" validate:"min=0"`
	TransportAllow float64   `json:"transport_allowance" validate:"min=0"`
	OtherAllow     float64   `json:"other_allowance" validate:"min=0"`
	ProvidentFund  float64   `json:"provident_fund" validate:"min=0"`
	OtherDeduction float64   `json:"other_deduction" validate:"min=0"`
	EffectiveFrom  time.Time `json:"effective_from" validate:"required"`
}

// ProcessSalaryRequest starts a salary run for an (employee, period).
type ProcessSalaryRequest struct {
	EmployeeID       string  `json:"employee_id" validate:"required"`
	Period           string  `json:"period" validate:"required"`
	DaysWorked       int     `json:"days_worked" validate:"required,min=1,max=31"`
	Bonus            float64 `json:"bonus" validate:"min=0"`
	OvertimeAmount   float64 `json:"overtime_amount" validate:"min=0"`
	AdvanceDeduction float64 `json:"advance_deduction" validate:"min=0"`
}

// PayrollService handles salary structures and salary runs.
type PayrollService struct {
	repo      payrollRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPayrollService constructs the payroll service.
func NewPayrollService(repo payrollRepository, validate *validator.Validate, logger *zap.Logger) *PayrollService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollService{repo: repo, validator: validate, logger: logger}
}

// GetActiveStructure returns the active salary structure of an employee.
func (s *PayrollService) GetActiveStructure(ctx context.Context, employeeID string) (*models.SalaryStructure, error) {
	structure, err := s.repo.FindActiveStructure(ctx, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active salary structure")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salary structure")
	}
	return structure, nil
}

// ListStructures returns the structure history of an employee.
func (s *PayrollService) ListStructures(ctx context.Context, employeeID string) ([]models.SalaryStructure, error) {
	structures, err := s.repo.ListStructures(ctx, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list salary structures")
	}
	return structures, nil
}

// CreateStructure activates a new salary structure for an employee. Gross,
// monthly tax and net are derived here; any previously active structure is
// deactivated in the same transaction.
func (s *PayrollService) CreateStructure(ctx context.Context, req CreateStructureRequest) (*models.SalaryStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid salary structure payload")
	}

	gross := req.BasicSalary + req.HouseRentAllow + req.MedicalAllow + req.TransportAllow + req.OtherAllow
	monthlyTax, err := MonthlyTax(gross)
	if err != nil {
		return nil, err
	}
	net := gross - monthlyTax - req.ProvidentFund - req.OtherDeduction

	structure := &models.SalaryStructure{
		EmployeeID:     req.EmployeeID,
		BasicSalary:    req.BasicSalary,
		HouseRentAllow: req.HouseRentAllow,
		MedicalAllow:   req.MedicalAllow,
		TransportAllow: req.TransportAllow,
		OtherAllow:     req.OtherAllow,
		ProvidentFund:  req.ProvidentFund,
		OtherDeduction: req.OtherDeduction,
		MonthlyTax:     monthlyTax,
		GrossSalary:    gross,
		NetSalary:      net,
		EffectiveFrom:  req.EffectiveFrom,
	}
	if err := s.repo.CreateStructure(ctx, structure); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create salary structure")
	}
	return structure, nil
}

// ProcessSalary creates the salary run for an (employee, period) from the
// active structure. The run starts in pending state and only advances to
// processed through MarkProcessed. A second run for the same period is
// rejected with a conflict; the uniqueness lives in the database, not in
// a pre-check.
func (s *PayrollService) ProcessSalary(ctx context.Context, processedBy string, req ProcessSalaryRequest) (*models.SalaryProcessing, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid salary run payload")
	}

	structure, err := s.GetActiveStructure(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	gross := structure.GrossSalary + req.Bonus + req.OvertimeAmount
	net := structure.NetSalary + req.Bonus + req.OvertimeAmount - req.AdvanceDeduction

	processing := &models.SalaryProcessing{
		EmployeeID:       req.EmployeeID,
		Period:           req.Period,
		DaysWorked:       req.DaysWorked,
		Bonus:            req.Bonus,
		OvertimeAmount:   req.OvertimeAmount,
		AdvanceDeduction: req.AdvanceDeduction,
		GrossSalary:      gross,
		NetSalary:        net,
		Status:           models.ProcessingStatusPending,
		ProcessedBy:      processedBy,
		ProcessedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreateProcessing(ctx, processing); err != nil {
		if errors.Is(err, repository.ErrDuplicateProcessing) {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("salary already processed for %s", req.Period))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to process salary")
	}
	return processing, nil
}

// ListProcessings returns salary runs and pagination metadata.
func (s *PayrollService) ListProcessings(ctx context.Context, filter models.ProcessingFilter) ([]models.SalaryProcessing, *models.Pagination, error) {
	processings, total, err := s.repo.ListProcessings(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list salary runs")
	}
	return processings, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// MarkProcessed advances a pending run to processed, confirming the
// computed amounts.
func (s *PayrollService) MarkProcessed(ctx context.Context, id string) (*models.SalaryProcessing, error) {
	processing, err := s.getProcessing(ctx, id)
	if err != nil {
		return nil, err
	}
	if processing.Status != models.ProcessingStatusPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("cannot confirm a %s salary run", processing.Status))
	}
	now := time.Now().UTC()
	if err := s.repo.MarkProcessed(ctx, id, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark salary run processed")
	}
	processing.Status = models.ProcessingStatusProcessed
	processing.ProcessedAt = now
	return processing, nil
}

// Approve advances a processed run to approved, stamping the approver.
func (s *PayrollService) Approve(ctx context.Context, id, approvedBy string) (*models.SalaryProcessing, error) {
	processing, err := s.getProcessing(ctx, id)
	if err != nil {
		return nil, err
	}
	if processing.Status != models.ProcessingStatusProcessed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("cannot approve a %s salary run", processing.Status))
	}
	now := time.Now().UTC()
	if err := s.repo.Approve(ctx, id, approvedBy, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve salary run")
	}
	processing.Status = models.ProcessingStatusApproved
	processing.ApprovedBy = &approvedBy
	processing.ApprovedAt = &now
	return processing, nil
}

// MarkPaid advances an approved run to paid, stamping the payer.
func (s *PayrollService) MarkPaid(ctx context.Context, id, paidBy string) (*models.SalaryProcessing, error) {
	processing, err := s.getProcessing(ctx, id)
	if err != nil {
		return nil, err
	}
	if processing.Status != models.ProcessingStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("cannot pay a %s salary run", processing.Status))
	}
	now := time.Now().UTC()
	if err := s.repo.MarkPaid(ctx, id, paidBy, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark salary paid")
	}
	processing.Status = models.ProcessingStatusPaid
	processing.PaidBy = &paidBy
	processing.PaidAt = &now
	return processing, nil
}

func (s *PayrollService) getProcessing(ctx context.Context, id string) (*models.SalaryProcessing, error) {
	processing, err := s.repo.FindProcessingByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "salary run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load salary run")
	}
	return processing, nil
}
