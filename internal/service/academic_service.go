package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type academicRepository interface {
	ListCampuses(ctx context.Context) ([]models.Campus, error)
	FindCampusByID(ctx context.Context, id string) (*models.Campus, error)
	CreateCampus(ctx context.Context, campus *models.Campus) error
	ListPrograms(ctx context.Context) ([]models.Program, error)
	FindProgramByID(ctx context.Context, id string) (*models.Program, error)
	ExistsProgramByCode(ctx context.Context, code string, excludeID string) (bool, error)
	CreateProgram(ctx context.Context, program *models.Program) error
	UpdateProgram(ctx context.Context, program *models.Program) error
	ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindCourseByID(ctx context.Context, id string) (*models.Course, error)
	ExistsCourseByCode(ctx context.Context, code string, excludeID string) (bool, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	UpdateCourse(ctx context.Context, course *models.Course) error
}

// CreateCampusRequest holds payload for registering a campus.
type CreateCampusRequest struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	City    string `json:"city" validate:"required"`
	Address string `json:"address"`
}

// CreateProgramRequest holds payload for creating a program.
type CreateProgramRequest struct {
	Code              string `json:"code" validate:"required"`
	Name              string `json:"name" validate:"required"`
	Department        string `json:"department" validate:"required"`
	DurationSemesters int    `json:"duration_semesters" validate:"required,min=1,max=16"`
}

// UpdateProgramRequest holds payload for updating a program.
type UpdateProgramRequest struct {
	Code              string `json:"code" validate:"required"`
	Name              string `json:"name" validate:"required"`
	Department        string `json:"department" validate:"required"`
	DurationSemesters int    `json:"duration_semesters" validate:"required,min=1,max=16"`
	Active            bool   `json:"active"`
}

// CreateCourseRequest holds payload for creating a course.
type CreateCourseRequest struct {
	Code        string `json:"code" validate:"required"`
	Title       string `json:"title" validate:"required"`
	ProgramID   string `json:"program_id" validate:"required"`
	Semester    int    `json:"semester" validate:"required,min=1"`
	CreditHours int    `json:"credit_hours" validate:"required,min=1,max=6"`
}

// UpdateCourseRequest holds payload for updating a course.
type UpdateCourseRequest struct {
	Code        string `json:"code" validate:"required"`
	Title       string `json:"title" validate:"required"`
	ProgramID   string `json:"program_id" validate:"required"`
	Semester    int    `json:"semester" validate:"required,min=1"`
	CreditHours int    `json:"credit_hours" validate:"required,min=1,max=6"`
	Active      bool   `json:"active"`
}

// AcademicService handles campus, program and course use-cases.
type AcademicService struct {
	repo      academicRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicService constructs the academic service.
func NewAcademicService(repo academicRepository, validate *validator.Validate, logger *zap.Logger) *AcademicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicService{repo: repo, validator: validate, logger: logger}
}

// ListCampuses returns every campus.
func (s *AcademicService) ListCampuses(ctx context.Context) ([]models.Campus, error) {
	campuses, err := s.repo.ListCampuses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campuses")
	}
	return campuses, nil
}

// CreateCampus registers a campus.
func (s *AcademicService) CreateCampus(ctx context.Context, req CreateCampusRequest) (*models.Campus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campus payload")
	}
	campus := &models.Campus{
		Code:    req.Code,
		Name:    req.Name,
		City:    req.City,
		Address: req.Address,
		Active:  true,
	}
	if err := s.repo.CreateCampus(ctx, campus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campus")
	}
	return campus, nil
}

// ListPrograms returns every program.
func (s *AcademicService) ListPrograms(ctx context.Context) ([]models.Program, error) {
	programs, err := s.repo.ListPrograms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// GetProgram returns one program.
func (s *AcademicService) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.repo.FindProgramByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// CreateProgram creates a program with a unique code.
func (s *AcademicService) CreateProgram(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	exists, err := s.repo.ExistsProgramByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate program code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "program code already used")
	}
	program := &models.Program{
		Code:              req.Code,
		Name:              req.Name,
		Department:        req.Department,
		DurationSemesters: req.DurationSemesters,
		Active:            true,
	}
	if err := s.repo.CreateProgram(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	return program, nil
}

// UpdateProgram modifies an existing program.
func (s *AcademicService) UpdateProgram(ctx context.Context, id string, req UpdateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program, err := s.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsProgramByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate program code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "program code already used")
	}
	program.Code = req.Code
	program.Name = req.Name
	program.Department = req.Department
	program.DurationSemesters = req.DurationSemesters
	program.Active = req.Active
	if err := s.repo.UpdateProgram(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}
	return program, nil
}

// ListCourses returns courses and pagination metadata.
func (s *AcademicService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.ListCourses(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetCourse returns one course.
func (s *AcademicService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindCourseByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// CreateCourse creates a course with a unique code.
func (s *AcademicService) CreateCourse(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	exists, err := s.repo.ExistsCourseByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}
	course := &models.Course{
		Code:        req.Code,
		Title:       req.Title,
		ProgramID:   req.ProgramID,
		Semester:    req.Semester,
		CreditHours: req.CreditHours,
		Active:      true,
	}
	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// UpdateCourse modifies an existing course.
func (s *AcademicService) UpdateCourse(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsCourseByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}
	course.Code = req.Code
	course.Title = req.Title
	course.ProgramID = req.ProgramID
	course.Semester = req.Semester
	course.CreditHours = req.CreditHours
	course.Active = req.Active
	if err := s.repo.UpdateCourse(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}
