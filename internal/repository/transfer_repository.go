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

// TransferRepository manages campus transfer requests.
type TransferRepository struct {
	db *sqlx.DB
}

// NewTransferRepository constructs a TransferRepository.
func NewTransferRepository(db *sqlx.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// List returns transfer requests matching the filter.
func (r *TransferRepository) List(ctx context.Context, filter models.TransferFilter) ([]models.TransferRequest, int, error) {
	base := "FROM transfer_requests tr"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("tr.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CampusID != "" {
		conditions = append(conditions, fmt.Sprintf("(tr.from_campus_id = $%d OR tr.to_campus_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.CampusID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("tr.status = $%d", len(args)+1))
		args = append(args, filter.Status)
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

	query := fmt.Sprintf(`SELECT tr.id, tr.student_id, tr.from_campus_id, tr.to_campus_id, tr.reason, tr.status,
        tr.reviewed_by, tr.reviewed_at, tr.completed_at, tr.created_at, tr.updated_at
        %s ORDER BY tr.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var transfers []models.TransferRequest
	if err := r.db.SelectContext(ctx, &transfers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transfers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(tr.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count transfers: %w", err)
	}
	return transfers, total, nil
}

// FindByID fetches one transfer request.
func (r *TransferRepository) FindByID(ctx context.Context, id string) (*models.TransferRequest, error) {
	const query = `SELECT id, student_id, from_campus_id, to_campus_id, reason, status, reviewed_by, reviewed_at, completed_at, created_at, updated_at
        FROM transfer_requests WHERE id = $1`
	var transfer models.TransferRequest
	if err := r.db.GetContext(ctx, &transfer, query, id); err != nil {
		return nil, err
	}
	return &transfer, nil
}

// HasOpenRequest reports whether the student already has a pending or
// approved transfer in flight.
func (r *TransferRepository) HasOpenRequest(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT COUNT(id) FROM transfer_requests WHERE student_id = $1 AND status IN ($2, $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, models.TransferStatusPending, models.TransferStatusApproved); err != nil {
		return false, fmt.Errorf("check open transfer: %w", err)
	}
	return count > 0, nil
}

// Create inserts a pending transfer request.
func (r *TransferRepository) Create(ctx context.Context, transfer *models.TransferRequest) error {
	if transfer.ID == "" {
		transfer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	transfer.CreatedAt = now
	transfer.UpdatedAt = now
	const query = `INSERT INTO transfer_requests (id, student_id, from_campus_id, to_campus_id, reason, status, created_at, updated_at)
        VALUES (:id, :student_id, :from_campus_id, :to_campus_id, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, transfer); err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

// Review records an approve/reject decision. The pending guard keeps a
// second reviewer from overriding the first; false means the request was
// no longer pending.
func (r *TransferRepository) Review(ctx context.Context, id string, status models.TransferStatus, reviewedBy string, reviewedAt time.Time) (bool, error) {
	const query = `UPDATE transfer_requests SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4
        WHERE id = $1 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, id, status, reviewedBy, reviewedAt, models.TransferStatusPending)
	if err != nil {
		return false, fmt.Errorf("review transfer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("review transfer: %w", err)
	}
	return affected > 0, nil
}

// Complete moves the student to the destination campus and closes the
// request inside one transaction, so the student record and the request
// can never disagree. False means the request was not in the approved state.
func (r *TransferRepository) Complete(ctx context.Context, id string, completedAt time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin complete transfer: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx,
		`UPDATE transfer_requests SET status = $2, completed_at = $3, updated_at = $3 WHERE id = $1 AND status = $4`,
		id, models.TransferStatusCompleted, completedAt, models.TransferStatusApproved)
	if err != nil {
		return false, fmt.Errorf("close transfer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close transfer: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE students SET campus_id = (SELECT to_campus_id FROM transfer_requests WHERE id = $1), updated_at = $2
         WHERE id = (SELECT student_id FROM transfer_requests WHERE id = $1)`,
		id, completedAt); err != nil {
		return false, fmt.Errorf("move student campus: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit complete transfer: %w", err)
	}
	return true, nil
}
