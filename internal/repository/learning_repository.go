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

// LearningRepository manages course materials and assignments.
type LearningRepository struct {
	db *sqlx.DB
}

// NewLearningRepository constructs a LearningRepository.
func NewLearningRepository(db *sqlx.DB) *LearningRepository {
	return &LearningRepository{db: db}
}

// ListMaterials returns course materials matching the filter.
func (r *LearningRepository) ListMaterials(ctx context.Context, filter models.MaterialFilter) ([]models.CourseMaterial, int, error) {
	base := "FROM course_materials cm"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("cm.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
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

	query := fmt.Sprintf(`SELECT cm.id, cm.course_id, cm.title, cm.kind, cm.url, cm.uploaded_by, cm.created_at
        %s ORDER BY cm.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var materials []models.CourseMaterial
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(cm.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count materials: %w", err)
	}
	return materials, total, nil
}

// CreateMaterial inserts a material row.
func (r *LearningRepository) CreateMaterial(ctx context.Context, material *models.CourseMaterial) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	material.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO course_materials (id, course_id, title, kind, url, uploaded_by, created_at)
        VALUES (:id, :course_id, :title, :kind, :url, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// DeleteMaterial removes a material row; false means it did not exist.
func (r *LearningRepository) DeleteMaterial(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM course_materials WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete material: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete material: %w", err)
	}
	return affected > 0, nil
}

// ListAssignments returns assignments matching the filter.
func (r *LearningRepository) ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	base := "FROM assignments asg"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("asg.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
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

	query := fmt.Sprintf(`SELECT asg.id, asg.course_id, asg.title, asg.description, asg.due_date, asg.total_marks,
        asg.created_by, asg.created_at, asg.updated_at
        %s ORDER BY asg.due_date DESC LIMIT %d OFFSET %d`, base, size, offset)

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(asg.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return assignments, total, nil
}

// FindAssignmentByID fetches one assignment.
func (r *LearningRepository) FindAssignmentByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, course_id, title, description, due_date, total_marks, created_by, created_at, updated_at
        FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// CreateAssignment inserts an assignment row.
func (r *LearningRepository) CreateAssignment(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, course_id, title, description, due_date, total_marks, created_by, created_at, updated_at)
        VALUES (:id, :course_id, :title, :description, :due_date, :total_marks, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// UpdateAssignment modifies an existing assignment.
func (r *LearningRepository) UpdateAssignment(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, description = :description, due_date = :due_date,
        total_marks = :total_marks, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}
