package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ahmad-watoo/ams-api/internal/models"
)

// DashboardRepository runs the count queries behind the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) countWhere(ctx context.Context, label, query string, args ...interface{}) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", label, err)
	}
	return count, nil
}

// CountStudents returns total and active student counts.
func (r *DashboardRepository) CountStudents(ctx context.Context) (total, active int, err error) {
	const query = `SELECT COUNT(id), COUNT(id) FILTER (WHERE active) FROM students`
	row := r.db.QueryRowContext(ctx, query)
	if err := row.Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("count students: %w", err)
	}
	return total, active, nil
}

// CountPendingAdmissions counts applications awaiting review.
func (r *DashboardRepository) CountPendingAdmissions(ctx context.Context) (int, error) {
	return r.countWhere(ctx, "pending admissions",
		"SELECT COUNT(id) FROM admission_applications WHERE status IN ($1, $2)",
		models.ApplicationStatusPending, models.ApplicationStatusUnderReview)
}

// CountEmployees counts active employees.
func (r *DashboardRepository) CountEmployees(ctx context.Context) (int, error) {
	return r.countWhere(ctx, "employees", "SELECT COUNT(id) FROM employees WHERE active")
}

// CountBorrowings returns open and overdue loan counts.
func (r *DashboardRepository) CountBorrowings(ctx context.Context, asOf time.Time) (borrowed, overdue int, err error) {
	const query = `SELECT COUNT(id) FILTER (WHERE status = $1),
        COUNT(id) FILTER (WHERE status = $2 OR (status = $1 AND due_date < $3))
        FROM book_borrowings`
	row := r.db.QueryRowContext(ctx, query, models.BorrowingStatusBorrowed, models.BorrowingStatusOverdue, asOf)
	if err := row.Scan(&borrowed, &overdue); err != nil {
		return 0, 0, fmt.Errorf("count borrowings: %w", err)
	}
	return borrowed, overdue, nil
}

// CountPendingCertificates counts certificate requests awaiting review.
func (r *DashboardRepository) CountPendingCertificates(ctx context.Context) (int, error) {
	return r.countWhere(ctx, "pending certificates",
		"SELECT COUNT(id) FROM certificate_requests WHERE status = $1", models.CertificateRequestPending)
}

// CountPendingTransfers counts transfer requests awaiting review.
func (r *DashboardRepository) CountPendingTransfers(ctx context.Context) (int, error) {
	return r.countWhere(ctx, "pending transfers",
		"SELECT COUNT(id) FROM transfer_requests WHERE status = $1", models.TransferStatusPending)
}

// CountPendingSalaryRuns counts salary runs not yet paid out.
func (r *DashboardRepository) CountPendingSalaryRuns(ctx context.Context) (int, error) {
	return r.countWhere(ctx, "pending salary runs",
		"SELECT COUNT(id) FROM salary_processings WHERE status <> $1", models.ProcessingStatusPaid)
}
