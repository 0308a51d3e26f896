package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ahmad-watoo/ams-api/internal/models"
)

// ExamRepository manages exams and exam results.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// ListExams returns exams matching the filter.
func (r *ExamRepository) ListExams(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	base := "FROM exams e"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("e.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("e.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.name, e.course_id, e.program_id, e.semester, e.exam_date, e.total_marks, e.created_at, e.updated_at
        %s ORDER BY e.exam_date DESC LIMIT %d OFFSET %d`, base, size, offset)

	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(e.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}
	return exams, total, nil
}

// FindExamByID fetches one exam.
func (r *ExamRepository) FindExamByID(ctx context.Context, id string) (*models.Exam, error) {
	const query = `SELECT id, name, course_id, program_id, semester, exam_date, total_marks, created_at, updated_at FROM exams WHERE id = $1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// CreateExam inserts an exam row.
func (r *ExamRepository) CreateExam(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	exam.CreatedAt = now
	exam.UpdatedAt = now
	const query = `INSERT INTO exams (id, name, course_id, program_id, semester, exam_date, total_marks, created_at, updated_at)
        VALUES (:id, :name, :course_id, :program_id, :semester, :exam_date, :total_marks, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// UpdateExam rewrites an exam row.
func (r *ExamRepository) UpdateExam(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exams SET name = :name, exam_date = :exam_date, total_marks = :total_marks, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return nil
}

// ListResults returns results matching the filter.
func (r *ExamRepository) ListResults(ctx context.Context, filter models.ResultFilter) ([]models.Result, int, error) {
	base := "FROM results res"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ExamID != "" {
		conditions = append(conditions, fmt.Sprintf("res.exam_id = $%d", len(args)+1))
		args = append(args, filter.ExamID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("res.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT res.id, res.exam_id, res.student_id, res.obtained_marks, res.total_marks,
        res.percentage, res.grade, res.gpa, res.created_at, res.updated_at
        %s ORDER BY res.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var results []models.Result
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(res.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}
	return results, total, nil
}

// FindResultByExamAndStudent fetches the result row for one student in one exam.
func (r *ExamRepository) FindResultByExamAndStudent(ctx context.Context, examID, studentID string) (*models.Result, error) {
	const query = `SELECT id, exam_id, student_id, obtained_marks, total_marks, percentage, grade, gpa, created_at, updated_at
        FROM results WHERE exam_id = $1 AND student_id = $2`
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, examID, studentID); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateResult inserts a result row.
func (r *ExamRepository) CreateResult(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	result.CreatedAt = now
	result.UpdatedAt = now
	const query = `INSERT INTO results (id, exam_id, student_id, obtained_marks, total_marks, percentage, grade, gpa, created_at, updated_at)
        VALUES (:id, :exam_id, :student_id, :obtained_marks, :total_marks, :percentage, :grade, :gpa, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// UpdateResult replaces marks and the recomputed grading fields.
func (r *ExamRepository) UpdateResult(ctx context.Context, result *models.Result) error {
	result.UpdatedAt = time.Now().UTC()
	const query = `UPDATE results SET obtained_marks = :obtained_marks, total_marks = :total_marks,
        percentage = :percentage, grade = :grade, gpa = :gpa, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	return nil
}

// TranscriptRows loads every graded exam for a student, joined with course titles.
func (r *ExamRepository) TranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	const query = `SELECT res.exam_id, e.name AS exam_name, c.title AS course_title, res.percentage, res.grade, res.gpa
        FROM results res
        JOIN exams e ON e.id = res.exam_id
        JOIN courses c ON c.id = e.course_id
        WHERE res.student_id = $1
        ORDER BY e.exam_date`
	var rows []models.TranscriptRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("transcript rows: %w", err)
	}
	return rows, nil
}
