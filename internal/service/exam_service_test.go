package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type mockExamRepo struct {
	exams   map[string]models.Exam
	results map[string]models.Result
	rows    []models.TranscriptRow
	created *models.Result
	updated *models.Result
}

func (m *mockExamRepo) ListExams(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	return nil, 0, nil
}

func (m *mockExamRepo) FindExamByID(ctx context.Context, id string) (*models.Exam, error) {
	if e, ok := m.exams[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExamRepo) CreateExam(ctx context.Context, exam *models.Exam) error {
	exam.ID = "new-exam"
	return nil
}

func (m *mockExamRepo) UpdateExam(ctx context.Context, exam *models.Exam) error {
	m.exams[exam.ID] = *exam
	return nil
}

func (m *mockExamRepo) ListResults(ctx context.Context, filter models.ResultFilter) ([]models.Result, int, error) {
	return nil, 0, nil
}

func (m *mockExamRepo) FindResultByExamAndStudent(ctx context.Context, examID, studentID string) (*models.Result, error) {
	if r, ok := m.results[examID+studentID]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExamRepo) CreateResult(ctx context.Context, result *models.Result) error {
	result.ID = "new-result"
	m.created = result
	return nil
}

func (m *mockExamRepo) UpdateResult(ctx context.Context, result *models.Result) error {
	m.updated = result
	return nil
}

func (m *mockExamRepo) TranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	return m.rows, nil
}

func newExamService(repo *mockExamRepo) *ExamService {
	return NewExamService(repo, validator.New(), zap.NewNop())
}

func TestExamServiceEnterResult(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]models.Exam{"x1": {ID: "x1", TotalMarks: 100}}}
	svc := newExamService(repo)

	result, err := svc.EnterResult(context.Background(), "x1", EnterResultRequest{
		StudentID:     "s1",
		ObtainedMarks: 85,
		TotalMarks:    100,
	})
	require.NoError(t, err)
	assert.Equal(t, 85.0, result.Percentage)
	assert.Equal(t, "A", result.Grade)
	assert.Equal(t, 4.0, result.GPA)
	assert.NotNil(t, repo.created)
}

func TestExamServiceEnterResultRecomputesExisting(t *testing.T) {
	repo := &mockExamRepo{
		exams: map[string]models.Exam{"x1": {ID: "x1", TotalMarks: 100}},
		results: map[string]models.Result{
			"x1s1": {ID: "r1", ExamID: "x1", StudentID: "s1", ObtainedMarks: 35, TotalMarks: 100, Percentage: 35, Grade: "F", GPA: 0},
		},
	}
	svc := newExamService(repo)

	result, err := svc.EnterResult(context.Background(), "x1", EnterResultRequest{
		StudentID:     "s1",
		ObtainedMarks: 72,
		TotalMarks:    100,
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", result.ID)
	assert.Equal(t, 72.0, result.Percentage)
	assert.Equal(t, "B+", result.Grade)
	assert.Equal(t, 3.5, result.GPA)
	assert.NotNil(t, repo.updated)
	assert.Nil(t, repo.created)
}

func TestExamServiceEnterResultValidation(t *testing.T) {
	repo := &mockExamRepo{exams: map[string]models.Exam{"x1": {ID: "x1"}}}
	svc := newExamService(repo)

	_, err := svc.EnterResult(context.Background(), "x1", EnterResultRequest{StudentID: "s1", ObtainedMarks: 10, TotalMarks: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.EnterResult(context.Background(), "x1", EnterResultRequest{StudentID: "s1", ObtainedMarks: 110, TotalMarks: 100})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExamServiceEnterResultUnknownExam(t *testing.T) {
	svc := newExamService(&mockExamRepo{})

	_, err := svc.EnterResult(context.Background(), "missing", EnterResultRequest{StudentID: "s1", ObtainedMarks: 50, TotalMarks: 100})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExamServiceTranscript(t *testing.T) {
	repo := &mockExamRepo{rows: []models.TranscriptRow{
		{CourseTitle: "Algorithms", GPA: 4.0},
		{CourseTitle: "Databases", GPA: 3.0},
	}}
	svc := newExamService(repo)

	transcript, err := svc.Transcript(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, transcript.Rows, 2)
	assert.InDelta(t, 3.5, transcript.CGPA, 0.0001)
}
