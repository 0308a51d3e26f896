package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/ahmad-watoo/ams-api/internal/models"
)

func newPayrollRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPayrollRepositoryCreateStructureDeactivatesPrior(t *testing.T) {
	db, mock, cleanup := newPayrollRepoMock(t)
	defer cleanup()

	repo := NewPayrollRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE salary_structures SET is_active = false")).
		WithArgs("emp-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO salary_structures")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	structure := &models.SalaryStructure{
		EmployeeID:    "emp-1",
		BasicSalary:   100000,
		GrossSalary:   130000,
		NetSalary:     118000,
		EffectiveFrom: time.Now(),
	}
	require.NoError(t, repo.CreateStructure(context.Background(), structure))
	require.True(t, structure.IsActive)
	require.NotEmpty(t, structure.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepositoryCreateStructureRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newPayrollRepoMock(t)
	defer cleanup()

	repo := NewPayrollRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE salary_structures SET is_active = false")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO salary_structures")).
		WillReturnError(&pq.Error{Code: "23502"})
	mock.ExpectRollback()

	err := repo.CreateStructure(context.Background(), &models.SalaryStructure{EmployeeID: "emp-1"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepositoryCreateProcessingDuplicatePeriod(t *testing.T) {
	db, mock, cleanup := newPayrollRepoMock(t)
	defer cleanup()

	repo := NewPayrollRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO salary_processings")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateProcessing(context.Background(), &models.SalaryProcessing{
		EmployeeID: "emp-1",
		Period:     "2026-08",
		Status:     models.ProcessingStatusPending,
	})
	require.ErrorIs(t, err, ErrDuplicateProcessing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepositoryApproveStampsActor(t *testing.T) {
	db, mock, cleanup := newPayrollRepoMock(t)
	defer cleanup()

	repo := NewPayrollRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE salary_processings SET status")).
		WithArgs("run-1", models.ProcessingStatusApproved, "hr-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Approve(context.Background(), "run-1", "hr-1", now))
	require.NoError(t, mock.ExpectationsWereMet())
}
