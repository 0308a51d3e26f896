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

type learningRepository interface {
	ListMaterials(ctx context.Context, filter models.MaterialFilter) ([]models.CourseMaterial, int, error)
	CreateMaterial(ctx context.Context, material *models.CourseMaterial) error
	DeleteMaterial(ctx context.Context, id string) (bool, error)
	ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	FindAssignmentByID(ctx context.Context, id string) (*models.Assignment, error)
	CreateAssignment(ctx context.Context, assignment *models.Assignment) error
	UpdateAssignment(ctx context.Context, assignment *models.Assignment) error
}

// CreateMaterialRequest holds payload for publishing course material.
type CreateMaterialRequest struct {
	CourseID string `json:"course_id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Kind     string `json:"kind" validate:"required,oneof=document video link"`
	URL      string `json:"url" validate:"required,url"`
}

// CreateAssignmentRequest holds payload for publishing an assignment.
type CreateAssignmentRequest struct {
	CourseID    string    `json:"course_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	TotalMarks  float64   `json:"total_marks" validate:"required,gt=0"`
}

// UpdateAssignmentRequest holds payload for revising an assignment.
type UpdateAssignmentRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	TotalMarks  float64   `json:"total_marks" validate:"required,gt=0"`
}

// LearningService handles course materials and assignments.
type LearningService struct {
	repo      learningRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLearningService constructs the learning service.
func NewLearningService(repo learningRepository, validate *validator.Validate, logger *zap.Logger) *LearningService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LearningService{repo: repo, validator: validate, logger: logger}
}

// ListMaterials returns materials and pagination metadata.
func (s *LearningService) ListMaterials(ctx context.Context, filter models.MaterialFilter) ([]models.CourseMaterial, *models.Pagination, error) {
	materials, total, err := s.repo.ListMaterials(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// CreateMaterial publishes material for a course.
func (s *LearningService) CreateMaterial(ctx context.Context, uploadedBy string, req CreateMaterialRequest) (*models.CourseMaterial, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	material := &models.CourseMaterial{
		CourseID:   req.CourseID,
		Title:      req.Title,
		Kind:       req.Kind,
		URL:        req.URL,
		UploadedBy: uploadedBy,
	}
	if err := s.repo.CreateMaterial(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	return material, nil
}

// DeleteMaterial removes published material.
func (s *LearningService) DeleteMaterial(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteMaterial(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "material not found")
	}
	return nil
}

// ListAssignments returns assignments and pagination metadata.
func (s *LearningService) ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, *models.Pagination, error) {
	assignments, total, err := s.repo.ListAssignments(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// CreateAssignment publishes an assignment for a course.
func (s *LearningService) CreateAssignment(ctx context.Context, createdBy string, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment := &models.Assignment{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		TotalMarks:  req.TotalMarks,
		CreatedBy:   createdBy,
	}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// UpdateAssignment revises an existing assignment.
func (s *LearningService) UpdateAssignment(ctx context.Context, id string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment, err := s.repo.FindAssignmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	assignment.Title = req.Title
	assignment.Description = req.Description
	assignment.DueDate = req.DueDate
	assignment.TotalMarks = req.TotalMarks
	if err := s.repo.UpdateAssignment(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}
