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

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "registration_no", "full_name", "gender", "birth_date", "email", "phone", "address", "program_id", "campus_id", "batch", "semester", "active", "created_at", "updated_at", "program_name", "campus_name"}).
		AddRow("student-1", "REG-2026-00001", "Ayesha Khan", "female", now.AddDate(-20, 0, 0), "ayesha@example.com", "0300", "Lahore", "prog-1", "campus-1", "2026", 1, true, now, now, "BS Computer Science", "Main Campus")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, s.registration_no")).
		WithArgs("prog-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(s.id)")).
		WithArgs("prog-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{ProgramID: "prog-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, students, 1)
	require.Equal(t, "REG-2026-00001", students[0].RegistrationNo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{
		RegistrationNo: "REG-2026-00002",
		FullName:       "Bilal Ahmed",
		Email:          "bilal@example.com",
		ProgramID:      "prog-1",
		CampusID:       "campus-1",
		Batch:          "2026",
		Semester:       1,
		Active:         true,
	}
	require.NoError(t, repo.Create(context.Background(), student))
	require.NotEmpty(t, student.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
