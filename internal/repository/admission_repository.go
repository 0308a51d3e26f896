package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ahmad-watoo/ams-api/internal/models"
)

// AdmissionRepository manages persistence for admission applications.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs an AdmissionRepository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// List returns applications matching the provided filters.
func (r *AdmissionRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.AdmissionApplication, int, error) {
	base := "FROM admission_applications a"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("a.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.CampusID != "" {
		conditions = append(conditions, fmt.Sprintf("a.campus_id = $%d", len(args)+1))
		args = append(args, filter.CampusID)
	}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("a.batch = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(a.full_name) LIKE $%d OR LOWER(a.application_no) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	query := fmt.Sprintf(`SELECT a.id, a.application_no, a.full_name, a.email, a.phone, a.program_id, a.campus_id, a.batch,
        a.prior_score, a.test_score, a.merit_score, a.status, a.remarks, a.reviewed_by, a.reviewed_at, a.created_at, a.updated_at
        %s ORDER BY a.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var applications []models.AdmissionApplication
	if err := r.db.SelectContext(ctx, &applications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(a.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return applications, total, nil
}

// FindByID fetches one application.
func (r *AdmissionRepository) FindByID(ctx context.Context, id string) (*models.AdmissionApplication, error) {
	const query = `SELECT id, application_no, full_name, email, phone, program_id, campus_id, batch,
        prior_score, test_score, merit_score, status, remarks, reviewed_by, reviewed_at, created_at, updated_at
        FROM admission_applications WHERE id = $1`
	var application models.AdmissionApplication
	if err := r.db.GetContext(ctx, &application, query, id); err != nil {
		return nil, err
	}
	return &application, nil
}

// ExistsByApplicationNo reports whether an application number is already taken.
func (r *AdmissionRepository) ExistsByApplicationNo(ctx context.Context, applicationNo string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM admission_applications WHERE application_no = $1 LIMIT 1", applicationNo)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check application no: %w", err)
	}
	return true, nil
}

// Create inserts a new application.
func (r *AdmissionRepository) Create(ctx context.Context, application *models.AdmissionApplication) error {
	if application.ID == "" {
		application.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if application.CreatedAt.IsZero() {
		application.CreatedAt = now
	}
	application.UpdatedAt = now
	const query = `INSERT INTO admission_applications (id, application_no, full_name, email, phone, program_id, campus_id, batch, prior_score, test_score, merit_score, status, remarks, created_at, updated_at)
        VALUES (:id, :application_no, :full_name, :email, :phone, :program_id, :campus_id, :batch, :prior_score, :test_score, :merit_score, :status, :remarks, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, application); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// UpdateStatus records a review decision.
func (r *AdmissionRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, remarks *string, reviewedBy string, reviewedAt time.Time) error {
	const query = `UPDATE admission_applications SET status = $2, remarks = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, remarks, reviewedBy, reviewedAt); err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return nil
}

// MeritList ranks applicants of a (program, batch) by merit score.
func (r *AdmissionRepository) MeritList(ctx context.Context, programID, batch string, limit int) ([]models.MeritEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT a.id AS application_id, a.application_no, a.full_name, a.merit_score,
        RANK() OVER (ORDER BY a.merit_score DESC) AS rank
        FROM admission_applications a
        WHERE a.program_id = $1 AND a.batch = $2 AND a.status <> $3
        ORDER BY a.merit_score DESC LIMIT %d`, limit)
	var entries []models.MeritEntry
	if err := r.db.SelectContext(ctx, &entries, query, programID, batch, models.ApplicationStatusRejected); err != nil {
		return nil, fmt.Errorf("merit list: %w", err)
	}
	return entries, nil
}
