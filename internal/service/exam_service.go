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

type examRepository interface {
	ListExams(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error)
	FindExamByID(ctx context.Context, id string) (*models.Exam, error)
	CreateExam(ctx context.Context, exam *models.Exam) error
	UpdateExam(ctx context.Context, exam *models.Exam) error
	ListResults(ctx context.Context, filter models.ResultFilter) ([]models.Result, int, error)
	FindResultByExamAndStudent(ctx context.Context, examID, studentID string) (*models.Result, error)
	CreateResult(ctx context.Context, result *models.Result) error
	UpdateResult(ctx context.Context, result *models.Result) error
	TranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error)
}

// CreateExamRequest holds payload for scheduling an exam.
type CreateExamRequest struct {
	Name       string    `json:"name" validate:"required"`
	CourseID   string    `json:"course_id" validate:"required"`
	ProgramID  string    `json:"program_id" validate:"required"`
	Semester   int       `json:"semester" validate:"required,min=1"`
	ExamDate   time.Time `json:"exam_date" validate:"required"`
	TotalMarks float64   `json:"total_marks" validate:"required,gt=0"`
}

// UpdateExamRequest reschedules an exam or corrects its marks total.
type UpdateExamRequest struct {
	Name       string    `json:"name" validate:"required"`
	ExamDate   time.Time `json:"exam_date" validate:"required"`
	TotalMarks float64   `json:"total_marks" validate:"required,gt=0"`
}

// EnterResultRequest holds marks for one student in one exam.
type EnterResultRequest struct {
	StudentID     string  `json:"student_id" validate:"required"`
	ObtainedMarks float64 `json:"obtained_marks" validate:"min=0"`
	TotalMarks    float64 `json:"total_marks" validate:"required"`
}

// ExamService handles exam scheduling and result grading.
type ExamService struct {
	repo      examRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs the exam service.
func NewExamService(repo examRepository, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, validator: validate, logger: logger}
}

// ListExams returns exams and pagination metadata.
func (s *ExamService) ListExams(ctx context.Context, filter models.ExamFilter) ([]models.Exam, *models.Pagination, error) {
	exams, total, err := s.repo.ListExams(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetExam returns one exam.
func (s *ExamService) GetExam(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.repo.FindExamByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return exam, nil
}

// CreateExam schedules a new exam.
func (s *ExamService) CreateExam(ctx context.Context, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	exam := &models.Exam{
		Name:       req.Name,
		CourseID:   req.CourseID,
		ProgramID:  req.ProgramID,
		Semester:   req.Semester,
		ExamDate:   req.ExamDate,
		TotalMarks: req.TotalMarks,
	}
	if err := s.repo.CreateExam(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	return exam, nil
}

// UpdateExam reschedules an exam. Already entered results keep the marks
// total they were graded against.
func (s *ExamService) UpdateExam(ctx context.Context, id string, req UpdateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	exam, err := s.GetExam(ctx, id)
	if err != nil {
		return nil, err
	}
	exam.Name = req.Name
	exam.ExamDate = req.ExamDate
	exam.TotalMarks = req.TotalMarks
	if err := s.repo.UpdateExam(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam")
	}
	return exam, nil
}

// ListResults returns results and pagination metadata.
func (s *ExamService) ListResults(ctx context.Context, filter models.ResultFilter) ([]models.Result, *models.Pagination, error) {
	results, total, err := s.repo.ListResults(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// EnterResult records marks for a student, deriving percentage, grade and GPA.
// An existing result for the same (exam, student) is recomputed in full.
func (s *ExamService) EnterResult(ctx context.Context, examID string, req EnterResultRequest) (*models.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}
	if req.TotalMarks <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "total marks must be positive")
	}
	if req.ObtainedMarks > req.TotalMarks {
		return nil, appErrors.Clone(appErrors.ErrValidation, "obtained marks exceed total marks")
	}

	if _, err := s.GetExam(ctx, examID); err != nil {
		return nil, err
	}

	percentage := req.ObtainedMarks / req.TotalMarks * 100
	band := GradeFor(percentage)

	existing, err := s.repo.FindResultByExamAndStudent(ctx, examID, req.StudentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}

	if existing != nil {
		existing.ObtainedMarks = req.ObtainedMarks
		existing.TotalMarks = req.TotalMarks
		existing.Percentage = percentage
		existing.Grade = band.Grade
		existing.GPA = band.GPA
		if err := s.repo.UpdateResult(ctx, existing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update result")
		}
		return existing, nil
	}

	result := &models.Result{
		ExamID:        examID,
		StudentID:     req.StudentID,
		ObtainedMarks: req.ObtainedMarks,
		TotalMarks:    req.TotalMarks,
		Percentage:    percentage,
		Grade:         band.Grade,
		GPA:           band.GPA,
	}
	if err := s.repo.CreateResult(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create result")
	}
	return result, nil
}

// Transcript builds a student's transcript with the averaged CGPA.
func (s *ExamService) Transcript(ctx context.Context, studentID string) (*models.Transcript, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	rows, err := s.repo.TranscriptRows(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
	}
	gpas := make([]float64, 0, len(rows))
	for _, row := range rows {
		gpas = append(gpas, row.GPA)
	}
	return &models.Transcript{
		StudentID: studentID,
		Rows:      rows,
		CGPA:      CGPA(gpas),
	}, nil
}
