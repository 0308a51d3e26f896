package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
	"github.com/ahmad-watoo/ams-api/pkg/export"
)

type financeRepository interface {
	ListFeeStructures(ctx context.Context, programID string) ([]models.FeeStructure, error)
	FindFeeStructure(ctx context.Context, programID string, semester int) (*models.FeeStructure, error)
	UpsertFeeStructure(ctx context.Context, structure *models.FeeStructure) error
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.FeePayment, int, error)
	ListPaymentsForExport(ctx context.Context, filter models.PaymentFilter) ([]models.FeePayment, error)
	CreatePayment(ctx context.Context, payment *models.FeePayment) error
}

// UpsertFeeStructureRequest holds fee heads for a (program, semester).
type UpsertFeeStructureRequest struct {
	ProgramID    string  `json:"program_id" validate:"required"`
	Semester     int     `json:"semester" validate:"required,min=1"`
	TuitionFee   float64 `json:"tuition_fee" validate:"min=0"`
	AdmissionFee float64 `json:"admission_fee" validate:"min=0"`
	ExamFee      float64 `json:"exam_fee" validate:"min=0"`
	LibraryFee   float64 `json:"library_fee" validate:"min=0"`
	MiscFee      float64 `json:"misc_fee" validate:"min=0"`
}

// RecordPaymentRequest holds payload for receiving a fee payment.
type RecordPaymentRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Method    string  `json:"method" validate:"required,oneof=cash bank card online"`
	Period    string  `json:"period" validate:"required"`
	Remarks   string  `json:"remarks"`
}

// FinanceService handles fee structures and fee collection.
type FinanceService struct {
	repo      financeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFinanceService constructs the finance service.
func NewFinanceService(repo financeRepository, validate *validator.Validate, logger *zap.Logger) *FinanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceService{repo: repo, validator: validate, logger: logger}
}

// ListFeeStructures returns fee structures, optionally scoped to a program.
func (s *FinanceService) ListFeeStructures(ctx context.Context, programID string) ([]models.FeeStructure, error) {
	structures, err := s.repo.ListFeeStructures(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee structures")
	}
	return structures, nil
}

// GetFeeStructure returns the fee structure for a (program, semester).
func (s *FinanceService) GetFeeStructure(ctx context.Context, programID string, semester int) (*models.FeeStructure, error) {
	structure, err := s.repo.FindFeeStructure(ctx, programID, semester)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee structure not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}
	return structure, nil
}

// UpsertFeeStructure creates or replaces the fee structure for its scope.
// The total is always recomputed from the fee heads.
func (s *FinanceService) UpsertFeeStructure(ctx context.Context, req UpsertFeeStructureRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee structure payload")
	}
	structure := &models.FeeStructure{
		ProgramID:    req.ProgramID,
		Semester:     req.Semester,
		TuitionFee:   req.TuitionFee,
		AdmissionFee: req.AdmissionFee,
		ExamFee:      req.ExamFee,
		LibraryFee:   req.LibraryFee,
		MiscFee:      req.MiscFee,
		TotalFee:     req.TuitionFee + req.AdmissionFee + req.ExamFee + req.LibraryFee + req.MiscFee,
	}
	if err := s.repo.UpsertFeeStructure(ctx, structure); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save fee structure")
	}
	return structure, nil
}

// ListPayments returns fee payments and pagination metadata.
func (s *FinanceService) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.FeePayment, *models.Pagination, error) {
	payments, total, err := s.repo.ListPayments(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// ExportPayments flattens every payment matching the filter into a tabular
// dataset for CSV download.
func (s *FinanceService) ExportPayments(ctx context.Context, filter models.PaymentFilter) (export.Dataset, error) {
	payments, err := s.repo.ListPaymentsForExport(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export payments")
	}
	dataset := export.Dataset{Headers: []string{"receipt_no", "student_id", "amount", "method", "period", "paid_at"}}
	for _, payment := range payments {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"receipt_no": payment.ReceiptNo,
			"student_id": payment.StudentID,
			"amount":     strconv.FormatFloat(payment.Amount, 'f', 2, 64),
			"method":     payment.Method,
			"period":     payment.Period,
			"paid_at":    payment.PaidAt.Format(time.RFC3339),
		})
	}
	return dataset, nil
}

// RecordPayment receives a fee payment and returns it with the assigned
// receipt number.
func (s *FinanceService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*models.FeePayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	payment := &models.FeePayment{
		StudentID: req.StudentID,
		Amount:    req.Amount,
		Method:    req.Method,
		Period:    req.Period,
		Remarks:   req.Remarks,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	return payment, nil
}
