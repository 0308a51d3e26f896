package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

const applicationNoAttempts = 5

type admissionRepository interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.AdmissionApplication, int, error)
	FindByID(ctx context.Context, id string) (*models.AdmissionApplication, error)
	ExistsByApplicationNo(ctx context.Context, applicationNo string) (bool, error)
	Create(ctx context.Context, application *models.AdmissionApplication) error
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, remarks *string, reviewedBy string, reviewedAt time.Time) error
	MeritList(ctx context.Context, programID, batch string, limit int) ([]models.MeritEntry, error)
}

// CreateApplicationRequest holds payload for submitting an admission application.
type CreateApplicationRequest struct {
	FullName   string  `json:"full_name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      string  `json:"phone"`
	ProgramID  string  `json:"program_id" validate:"required"`
	CampusID   string  `json:"campus_id" validate:"required"`
	Batch      string  `json:"batch" validate:"required"`
	PriorScore float64 `json:"prior_score" validate:"min=0,max=100"`
	TestScore  float64 `json:"test_score" validate:"min=0,max=100"`
}

// ReviewApplicationRequest records an admission decision.
type ReviewApplicationRequest struct {
	Status  models.ApplicationStatus `json:"status" validate:"required,oneof=under_review approved rejected"`
	Remarks *string                  `json:"remarks"`
}

// AdmissionService handles admission application use-cases.
type AdmissionService struct {
	repo      admissionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdmissionService constructs the admission service.
func NewAdmissionService(repo admissionRepository, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{repo: repo, validator: validate, logger: logger}
}

// List returns applications and pagination metadata.
func (s *AdmissionService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.AdmissionApplication, *models.Pagination, error) {
	applications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return applications, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one application.
func (s *AdmissionService) Get(ctx context.Context, id string) (*models.AdmissionApplication, error) {
	application, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return application, nil
}

// Create submits a new admission application. The application number is
// verified unused before insert and regenerated on collision.
func (s *AdmissionService) Create(ctx context.Context, req CreateApplicationRequest) (*models.AdmissionApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	applicationNo, err := s.uniqueApplicationNo(ctx)
	if err != nil {
		return nil, err
	}

	application := &models.AdmissionApplication{
		ApplicationNo: applicationNo,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		ProgramID:     req.ProgramID,
		CampusID:      req.CampusID,
		Batch:         req.Batch,
		PriorScore:    req.PriorScore,
		TestScore:     req.TestScore,
		MeritScore:    (req.PriorScore + req.TestScore) / 2,
		Status:        models.ApplicationStatusPending,
	}
	if err := s.repo.Create(ctx, application); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}
	return application, nil
}

// Review records a status decision on an application. Status only moves
// forward: pending → under_review → approved|rejected.
func (s *AdmissionService) Review(ctx context.Context, id, reviewerID string, req ReviewApplicationRequest) (*models.AdmissionApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	application, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !admissionTransitionAllowed(application.Status, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("cannot move application from %s to %s", application.Status, req.Status))
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, req.Status, req.Remarks, reviewerID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
	}

	application.Status = req.Status
	application.Remarks = req.Remarks
	application.ReviewedBy = &reviewerID
	application.ReviewedAt = &now
	return application, nil
}

// MeritList ranks non-rejected applicants of a (program, batch) by merit score.
func (s *AdmissionService) MeritList(ctx context.Context, programID, batch string, limit int) ([]models.MeritEntry, error) {
	if programID == "" || batch == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "program_id and batch are required")
	}
	entries, err := s.repo.MeritList(ctx, programID, batch, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build merit list")
	}
	return entries, nil
}

func (s *AdmissionService) uniqueApplicationNo(ctx context.Context) (string, error) {
	year := time.Now().UTC().Year()
	for attempt := 0; attempt < applicationNoAttempts; attempt++ {
		candidate := fmt.Sprintf("APP-%d-%05d", year, randomSequence(100000))
		exists, err := s.repo.ExistsByApplicationNo(ctx, candidate)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check application no")
		}
		if !exists {
			return candidate, nil
		}
		s.logger.Warn("application number collision, retrying", zap.String("candidate", candidate))
	}
	return "", appErrors.Clone(appErrors.ErrInternal, "could not allocate a unique application number")
}

func admissionTransitionAllowed(from, to models.ApplicationStatus) bool {
	switch from {
	case models.ApplicationStatusPending:
		return to == models.ApplicationStatusUnderReview || to == models.ApplicationStatusApproved || to == models.ApplicationStatusRejected
	case models.ApplicationStatusUnderReview:
		return to == models.ApplicationStatusApproved || to == models.ApplicationStatusRejected
	default:
		return false
	}
}

func randomSequence(max uint32) uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint32(time.Now().UnixNano()) % max
	}
	return binary.BigEndian.Uint32(buf[:]) % max
}
