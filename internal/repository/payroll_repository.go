package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ahmad-watoo/ams-api/internal/models"
)

// ErrDuplicateProcessing reports a second salary run for the same
// (employee, period) pair, detected via the unique index.
var ErrDuplicateProcessing = errors.New("salary already processed for period")

// PayrollRepository manages salary structures and salary processing runs.
type PayrollRepository struct {
	db *sqlx.DB
}

// NewPayrollRepository constructs a PayrollRepository.
func NewPayrollRepository(db *sqlx.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// FindActiveStructure returns the single active salary structure of an employee.
func (r *PayrollRepository) FindActiveStructure(ctx context.Context, employeeID string) (*models.SalaryStructure, error) {
	const query = `SELECT id, employee_id, basic_salary, house_rent_allowance, medical_allowance, transport_allowance,
        other_allowance, provident_fund, other_deduction, monthly_tax, gross_salary, net_salary, is_active,
        effective_from, created_at, updated_at
        FROM salary_structures WHERE employee_id = $1 AND is_active = true`
	var structure models.SalaryStructure
	if err := r.db.GetContext(ctx, &structure, query, employeeID); err != nil {
		return nil, err
	}
	return &structure, nil
}

// ListStructures returns every structure of an employee, newest first.
func (r *PayrollRepository) ListStructures(ctx context.Context, employeeID string) ([]models.SalaryStructure, error) {
	const query = `SELECT id, employee_id, basic_salary, house_rent_allowance, medical_allowance, transport_allowance,
        other_allowance, provident_fund, other_deduction, monthly_tax, gross_salary, net_salary, is_active,
        effective_from, created_at, updated_at
        FROM salary_structures WHERE employee_id = $1 ORDER BY effective_from DESC`
	var structures []models.SalaryStructure
	if err := r.db.SelectContext(ctx, &structures, query, employeeID); err != nil {
		return nil, fmt.Errorf("list salary structures: %w", err)
	}
	return structures, nil
}

// CreateStructure deactivates any prior active structure and inserts the new
// one inside a single transaction, so the one-active-per-employee invariant
// holds under concurrent activations.
func (r *PayrollRepository) CreateStructure(ctx context.Context, structure *models.SalaryStructure) error {
	if structure.ID == "" {
		structure.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	structure.CreatedAt = now
	structure.UpdatedAt = now
	structure.IsActive = true

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create structure: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`UPDATE salary_structures SET is_active = false, updated_at = $2 WHERE employee_id = $1 AND is_active = true`,
		structure.EmployeeID, now); err != nil {
		return fmt.Errorf("deactivate prior structure: %w", err)
	}

	const insert = `INSERT INTO salary_structures (id, employee_id, basic_salary, house_rent_allowance, medical_allowance,
        transport_allowance, other_allowance, provident_fund, other_deduction, monthly_tax, gross_salary, net_salary,
        is_active, effective_from, created_at, updated_at)
        VALUES (:id, :employee_id, :basic_salary, :house_rent_allowance, :medical_allowance, :transport_allowance,
        :other_allowance, :provident_fund, :other_deduction, :monthly_tax, :gross_salary, :net_salary,
        :is_active, :effective_from, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, structure); err != nil {
		return fmt.Errorf("insert salary structure: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create structure: %w", err)
	}
	return nil
}

// CreateProcessing inserts a salary run. The unique index on
// (employee_id, period) rejects duplicate runs; the violation is surfaced
// as ErrDuplicateProcessing.
func (r *PayrollRepository) CreateProcessing(ctx context.Context, processing *models.SalaryProcessing) error {
	if processing.ID == "" {
		processing.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	processing.CreatedAt = now
	processing.UpdatedAt = now
	const query = `INSERT INTO salary_processings (id, employee_id, period, days_worked, bonus, overtime_amount,
        advance_deduction, gross_salary, net_salary, status, processed_by, processed_at, created_at, updated_at)
        VALUES (:id, :employee_id, :period, :days_worked, :bonus, :overtime_amount, :advance_deduction,
        :gross_salary, :net_salary, :status, :processed_by, :processed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, processing); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateProcessing
		}
		return fmt.Errorf("create salary processing: %w", err)
	}
	return nil
}

// FindProcessingByID fetches one salary run.
func (r *PayrollRepository) FindProcessingByID(ctx context.Context, id string) (*models.SalaryProcessing, error) {
	const query = `SELECT id, employee_id, period, days_worked, bonus, overtime_amount, advance_deduction,
        gross_salary, net_salary, status, processed_by, processed_at, approved_by, approved_at, paid_by, paid_at,
        created_at, updated_at
        FROM salary_processings WHERE id = $1`
	var processing models.SalaryProcessing
	if err := r.db.GetContext(ctx, &processing, query, id); err != nil {
		return nil, err
	}
	return &processing, nil
}

// ListProcessings returns salary runs matching the filter.
func (r *PayrollRepository) ListProcessings(ctx context.Context, filter models.ProcessingFilter) ([]models.SalaryProcessing, int, error) {
	base := "FROM salary_processings sp"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("sp.employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("sp.period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("sp.status = $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT sp.id, sp.employee_id, sp.period, sp.days_worked, sp.bonus, sp.overtime_amount,
        sp.advance_deduction, sp.gross_salary, sp.net_salary, sp.status, sp.processed_by, sp.processed_at,
        sp.approved_by, sp.approved_at, sp.paid_by, sp.paid_at, sp.created_at, sp.updated_at
        %s ORDER BY sp.period DESC, sp.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var processings []models.SalaryProcessing
	if err := r.db.SelectContext(ctx, &processings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list salary processings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(sp.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count salary processings: %w", err)
	}
	return processings, total, nil
}

// MarkProcessed advances a pending run to processed, restamping the
// processing time.
func (r *PayrollRepository) MarkProcessed(ctx context.Context, id string, processedAt time.Time) error {
	const query = `UPDATE salary_processings SET status = $2, processed_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ProcessingStatusProcessed, processedAt); err != nil {
		return fmt.Errorf("mark salary processed: %w", err)
	}
	return nil
}

// Approve advances a processed run to approved, stamping the actor.
func (r *PayrollRepository) Approve(ctx context.Context, id, approvedBy string, approvedAt time.Time) error {
	const query = `UPDATE salary_processings SET status = $2, approved_by = $3, approved_at = $4, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ProcessingStatusApproved, approvedBy, approvedAt); err != nil {
		return fmt.Errorf("approve salary processing: %w", err)
	}
	return nil
}

// MarkPaid advances an approved run to paid, stamping the actor.
func (r *PayrollRepository) MarkPaid(ctx context.Context, id, paidBy string, paidAt time.Time) error {
	const query = `UPDATE salary_processings SET status = $2, paid_by = $3, paid_at = $4, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ProcessingStatusPaid, paidBy, paidAt); err != nil {
		return fmt.Errorf("mark salary paid: %w", err)
	}
	return nil
}
