package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ahmad-watoo/ams-api/internal/models"
)

func newCertificateRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCertificateRepositoryCreateCertificateAssignsNumber(t *testing.T) {
	db, mock, cleanup := newCertificateRepoMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)

	rows := sqlmock.NewRows([]string{"certificate_number"}).AddRow("CERT-2026-00007")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO certificates")).
		WillReturnRows(rows)

	certificate := &models.Certificate{
		RequestID:        "req-1",
		VerificationCode: "a1b2c3d4e5",
		StudentID:        "student-1",
		StudentName:      "Ayesha Khan",
		ProgramName:      "BS Computer Science",
		CertificateType:  "degree",
	}
	require.NoError(t, repo.CreateCertificate(context.Background(), certificate))
	require.Equal(t, "CERT-2026-00007", certificate.CertificateNumber)
	require.False(t, certificate.IssuedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepositoryUpdateRequestStatusGuard(t *testing.T) {
	db, mock, cleanup := newCertificateRepoMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)
	reviewer := "registrar-1"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE certificate_requests SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.UpdateRequestStatus(context.Background(), "req-1",
		models.CertificateRequestPending, models.CertificateRequestApproved, nil, &reviewer)
	require.NoError(t, err)
	require.True(t, ok)

	// Second reviewer loses: request no longer pending.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE certificate_requests SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.UpdateRequestStatus(context.Background(), "req-1",
		models.CertificateRequestPending, models.CertificateRequestRejected, nil, &reviewer)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
