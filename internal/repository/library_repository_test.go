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

func newLibraryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLibraryRepositoryDecrementAvailableCopies(t *testing.T) {
	db, mock, cleanup := newLibraryRepoMock(t)
	defer cleanup()

	repo := NewLibraryRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET available_copies = available_copies - 1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.DecrementAvailableCopies(context.Background(), "book-1")
	require.NoError(t, err)
	require.True(t, ok)

	// Last copy already gone: the guarded UPDATE touches no rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE books SET available_copies = available_copies - 1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.DecrementAvailableCopies(context.Background(), "book-1")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryRepositoryRenewGuard(t *testing.T) {
	db, mock, cleanup := newLibraryRepoMock(t)
	defer cleanup()

	repo := NewLibraryRepository(db)
	due := time.Now().Add(14 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE book_borrowings SET due_date")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Renew(context.Background(), "borrow-1", due, 2)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE book_borrowings SET due_date")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.Renew(context.Background(), "borrow-1", due, 2)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryRepositoryMarkReturnedIdempotent(t *testing.T) {
	db, mock, cleanup := newLibraryRepoMock(t)
	defer cleanup()

	repo := NewLibraryRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE book_borrowings SET status")).
		WithArgs("borrow-1", models.BorrowingStatusOverdue, now, 30.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.MarkReturned(context.Background(), "borrow-1", now, 30, models.BorrowingStatusOverdue)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE book_borrowings SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.MarkReturned(context.Background(), "borrow-1", now, 30, models.BorrowingStatusOverdue)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryRepositoryCreateBook(t *testing.T) {
	db, mock, cleanup := newLibraryRepoMock(t)
	defer cleanup()

	repo := NewLibraryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO books")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	book := &models.Book{
		ISBN:        "978-0134190440",
		Title:       "The Go Programming Language",
		Author:      "Donovan, Kernighan",
		Category:    "programming",
		TotalCopies: 5,
	}
	require.NoError(t, repo.CreateBook(context.Background(), book))
	require.NotEmpty(t, book.ID)
	require.Equal(t, 5, book.AvailableCopies)
	require.NoError(t, mock.ExpectationsWereMet())
}
