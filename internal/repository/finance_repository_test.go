package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ahmad-watoo/ams-api/internal/models"
)

func newFinanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFinanceRepositoryCreatePaymentReturnsReceiptNo(t *testing.T) {
	db, mock, cleanup := newFinanceRepoMock(t)
	defer cleanup()

	repo := NewFinanceRepository(db)

	rows := sqlmock.NewRows([]string{"receipt_no"}).AddRow("RCPT-2026-00042")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO fee_payments")).
		WillReturnRows(rows)

	payment := &models.FeePayment{
		StudentID: "student-1",
		Amount:    55000,
		Method:    "bank",
		Period:    "2026-FALL",
	}
	require.NoError(t, repo.CreatePayment(context.Background(), payment))
	require.Equal(t, "RCPT-2026-00042", payment.ReceiptNo)
	require.NotEmpty(t, payment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinanceRepositoryUpsertFeeStructure(t *testing.T) {
	db, mock, cleanup := newFinanceRepoMock(t)
	defer cleanup()

	repo := NewFinanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fee_structures")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	structure := &models.FeeStructure{
		ProgramID:  "prog-1",
		Semester:   1,
		TuitionFee: 50000,
		ExamFee:    5000,
		TotalFee:   55000,
	}
	require.NoError(t, repo.UpsertFeeStructure(context.Background(), structure))
	require.NotEmpty(t, structure.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinanceRepositorySumCollectedSince(t *testing.T) {
	db, mock, cleanup := newFinanceRepoMock(t)
	defer cleanup()

	repo := NewFinanceRepository(db)
	since := time.Now().AddDate(0, -1, 0)

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(125000.0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM fee_payments")).
		WithArgs(since).
		WillReturnRows(rows)

	total, err := repo.SumCollectedSince(context.Background(), since)
	require.NoError(t, err)
	require.Equal(t, 125000.0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
