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

// FinanceRepository manages fee structures and fee payments.
type FinanceRepository struct {
	db *sqlx.DB
}

// NewFinanceRepository constructs a FinanceRepository.
func NewFinanceRepository(db *sqlx.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

// ListFeeStructures returns all fee structures for a program.
func (r *FinanceRepository) ListFeeStructures(ctx context.Context, programID string) ([]models.FeeStructure, error) {
	query := `SELECT id, program_id, semester, tuition_fee, admission_fee, exam_fee, library_fee, misc_fee, total_fee, created_at, updated_at
        FROM fee_structures`
	args := []interface{}{}
	if programID != "" {
		query += " WHERE program_id = $1"
		args = append(args, programID)
	}
	query += " ORDER BY program_id, semester"
	var structures []models.FeeStructure
	if err := r.db.SelectContext(ctx, &structures, query, args...); err != nil {
		return nil, fmt.Errorf("list fee structures: %w", err)
	}
	return structures, nil
}

// FindFeeStructure fetches the fee structure for a (program, semester) pair.
func (r *FinanceRepository) FindFeeStructure(ctx context.Context, programID string, semester int) (*models.FeeStructure, error) {
	const query = `SELECT id, program_id, semester, tuition_fee, admission_fee, exam_fee, library_fee, misc_fee, total_fee, created_at, updated_at
        FROM fee_structures WHERE program_id = $1 AND semester = $2`
	var structure models.FeeStructure
	if err := r.db.GetContext(ctx, &structure, query, programID, semester); err != nil {
		return nil, err
	}
	return &structure, nil
}

// UpsertFeeStructure inserts or replaces the fee structure for a scope.
func (r *FinanceRepository) UpsertFeeStructure(ctx context.Context, structure *models.FeeStructure) error {
	if structure.ID == "" {
		structure.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if structure.CreatedAt.IsZero() {
		structure.CreatedAt = now
	}
	structure.UpdatedAt = now
	const query = `INSERT INTO fee_structures (id, program_id, semester, tuition_fee, admission_fee, exam_fee, library_fee, misc_fee, total_fee, created_at, updated_at)
        VALUES (:id, :program_id, :semester, :tuition_fee, :admission_fee, :exam_fee, :library_fee, :misc_fee, :total_fee, :created_at, :updated_at)
        ON CONFLICT (program_id, semester) DO UPDATE SET tuition_fee = EXCLUDED.tuition_fee, admission_fee = EXCLUDED.admission_fee,
        exam_fee = EXCLUDED.exam_fee, library_fee = EXCLUDED.library_fee, misc_fee = EXCLUDED.misc_fee,
        total_fee = EXCLUDED.total_fee, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, structure); err != nil {
		return fmt.Errorf("upsert fee structure: %w", err)
	}
	return nil
}

// ListPayments returns fee payments matching the filter.
func (r *FinanceRepository) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.FeePayment, int, error) {
	base := "FROM fee_payments fp"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("fp.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("fp.period = $%d", len(args)+1))
		args = append(args, filter.Period)
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

	query := fmt.Sprintf(`SELECT fp.id, fp.receipt_no, fp.student_id, fp.amount, fp.method, fp.period, fp.remarks, fp.paid_at, fp.created_at
        %s ORDER BY fp.paid_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var payments []models.FeePayment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(fp.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// ListPaymentsForExport returns every payment matching the filter, newest
// first, without paging.
func (r *FinanceRepository) ListPaymentsForExport(ctx context.Context, filter models.PaymentFilter) ([]models.FeePayment, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("fp.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("fp.period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}

	query := fmt.Sprintf(`SELECT fp.id, fp.receipt_no, fp.student_id, fp.amount, fp.method, fp.period, fp.remarks, fp.paid_at, fp.created_at
        FROM fee_payments fp WHERE %s ORDER BY fp.paid_at DESC`, strings.Join(conditions, " AND "))

	var payments []models.FeePayment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("list payments for export: %w", err)
	}
	return payments, nil
}

// CreatePayment inserts a payment, deriving the receipt number from a yearly
// sequence inside the statement so concurrent inserts cannot collide.
func (r *FinanceRepository) CreatePayment(ctx context.Context, payment *models.FeePayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}
	payment.CreatedAt = now
	year := payment.PaidAt.Year()
	const query = `INSERT INTO fee_payments (id, receipt_no, student_id, amount, method, period, remarks, paid_at, created_at)
        VALUES ($1, 'RCPT-' || $2::text || '-' || LPAD((COALESCE((SELECT MAX(SPLIT_PART(receipt_no, '-', 3)::int) FROM fee_payments WHERE receipt_no LIKE 'RCPT-' || $2::text || '-%'), 0) + 1)::text, 5, '0'), $3, $4, $5, $6, $7, $8, $9)
        RETURNING receipt_no`
	if err := r.db.GetContext(ctx, &payment.ReceiptNo, query,
		payment.ID, year, payment.StudentID, payment.Amount, payment.Method, payment.Period, payment.Remarks, payment.PaidAt, payment.CreatedAt); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// SumCollectedSince totals payments received on or after the given time.
func (r *FinanceRepository) SumCollectedSince(ctx context.Context, since time.Time) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM fee_payments WHERE paid_at >= $1`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, since); err != nil {
		return 0, fmt.Errorf("sum collected: %w", err)
	}
	return total, nil
}
