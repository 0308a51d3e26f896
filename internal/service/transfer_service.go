package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type transferRepository interface {
	List(ctx context.Context, filter models.TransferFilter) ([]models.TransferRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.TransferRequest, error)
	HasOpenRequest(ctx context.Context, studentID string) (bool, error)
	Create(ctx context.Context, transfer *models.TransferRequest) error
	Review(ctx context.Context, id string, status models.TransferStatus, reviewedBy string, reviewedAt time.Time) (bool, error)
	Complete(ctx context.Context, id string, completedAt time.Time) (bool, error)
}

type transferStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// CreateTransferRequest holds payload for requesting a campus transfer.
type CreateTransferRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	ToCampusID string `json:"to_campus_id" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

// ReviewTransferRequest holds an approve/reject decision.
type ReviewTransferRequest struct {
	Approve bool `json:"approve"`
}

// TransferService handles the campus transfer lifecycle.
type TransferService struct {
	repo      transferRepository
	students  transferStudentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTransferService constructs the transfer service.
func NewTransferService(repo transferRepository, students transferStudentReader, validate *validator.Validate, logger *zap.Logger) *TransferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns transfer requests and pagination metadata.
func (s *TransferService) List(ctx context.Context, filter models.TransferFilter) ([]models.TransferRequest, *models.Pagination, error) {
	transfers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transfers")
	}
	return transfers, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one transfer request.
func (s *TransferService) Get(ctx context.Context, id string) (*models.TransferRequest, error) {
	transfer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transfer request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transfer request")
	}
	return transfer, nil
}

// Request opens a transfer request for a student. A student can only have
// one pending or approved transfer at a time.
func (s *TransferService) Request(ctx context.Context, req CreateTransferRequest) (*models.TransferRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.CampusID == req.ToCampusID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is already enrolled at the destination campus")
	}

	open, err := s.repo.HasOpenRequest(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open transfers")
	}
	if open {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has an open transfer request")
	}

	transfer := &models.TransferRequest{
		StudentID:    req.StudentID,
		FromCampusID: student.CampusID,
		ToCampusID:   req.ToCampusID,
		Reason:       req.Reason,
		Status:       models.TransferStatusPending,
	}
	if err := s.repo.Create(ctx, transfer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transfer request")
	}
	return transfer, nil
}

// Review approves or rejects a pending transfer request. The pending guard
// lives in the update, so a second decision gets a precondition failure.
func (s *TransferService) Review(ctx context.Context, id, reviewedBy string, req ReviewTransferRequest) (*models.TransferRequest, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	status := models.TransferStatusRejected
	if req.Approve {
		status = models.TransferStatusApproved
	}
	now := time.Now().UTC()

	reviewed, err := s.repo.Review(ctx, id, status, reviewedBy, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review transfer")
	}
	if !reviewed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "transfer request is not pending")
	}
	return s.Get(ctx, id)
}

// Complete executes an approved transfer, moving the student to the
// destination campus.
func (s *TransferService) Complete(ctx context.Context, id string) (*models.TransferRequest, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	completed, err := s.repo.Complete(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete transfer")
	}
	if !completed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "transfer request is not approved")
	}
	return s.Get(ctx, id)
}
