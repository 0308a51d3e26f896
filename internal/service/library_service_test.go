package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type mockLibraryRepo struct {
	books         map[string]*models.Book
	borrowings    map[string]models.BookBorrowing
	created       *models.BookBorrowing
	createErr     error
	decrements    int
	increments    int
	renewAllowed  bool
	returnedClose bool
	closedStatus  models.BorrowingStatus
}

func (m *mockLibraryRepo) ListBooks(ctx context.Context, filter models.BookFilter) ([]models.Book, int, error) {
	return nil, 0, nil
}

func (m *mockLibraryRepo) FindBookByID(ctx context.Context, id string) (*models.Book, error) {
	if b, ok := m.books[id]; ok {
		return b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLibraryRepo) CreateBook(ctx context.Context, book *models.Book) error {
	book.ID = "new-book"
	book.AvailableCopies = book.TotalCopies
	return nil
}

func (m *mockLibraryRepo) UpdateBook(ctx context.Context, book *models.Book) error {
	return nil
}

func (m *mockLibraryRepo) DecrementAvailableCopies(ctx context.Context, bookID string) (bool, error) {
	book, ok := m.books[bookID]
	if !ok {
		return false, sql.ErrNoRows
	}
	if book.AvailableCopies <= 0 {
		return false, nil
	}
	book.AvailableCopies--
	m.decrements++
	return true, nil
}

func (m *mockLibraryRepo) IncrementAvailableCopies(ctx context.Context, bookID string) error {
	if book, ok := m.books[bookID]; ok {
		book.AvailableCopies++
	}
	m.increments++
	return nil
}

func (m *mockLibraryRepo) ListBorrowings(ctx context.Context, filter models.BorrowingFilter) ([]models.BookBorrowing, int, error) {
	return nil, 0, nil
}

func (m *mockLibraryRepo) FindBorrowingByID(ctx context.Context, id string) (*models.BookBorrowing, error) {
	if b, ok := m.borrowings[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLibraryRepo) CreateBorrowing(ctx context.Context, borrowing *models.BookBorrowing) error {
	if m.createErr != nil {
		return m.createErr
	}
	borrowing.ID = "new-borrowing"
	m.created = borrowing
	return nil
}

func (m *mockLibraryRepo) Renew(ctx context.Context, id string, newDueDate time.Time, maxRenewals int) (bool, error) {
	return m.renewAllowed, nil
}

func (m *mockLibraryRepo) MarkReturned(ctx context.Context, id string, returnedAt time.Time, fine float64, status models.BorrowingStatus) (bool, error) {
	if m.returnedClose {
		return false, nil
	}
	m.closedStatus = status
	return true, nil
}

func (m *mockLibraryRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return 3, nil
}

func newLibraryService(repo *mockLibraryRepo) *LibraryService {
	return NewLibraryService(repo, DefaultLibraryPolicy, validator.New(), zap.NewNop())
}

func TestLibraryServiceBorrow(t *testing.T) {
	repo := &mockLibraryRepo{books: map[string]*models.Book{"b1": {ID: "b1", TotalCopies: 2, AvailableCopies: 1}}}
	svc := newLibraryService(repo)

	borrowing, err := svc.Borrow(context.Background(), BorrowBookRequest{BookID: "b1", StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingStatusBorrowed, borrowing.Status)
	assert.Equal(t, borrowing.BorrowedAt.AddDate(0, 0, 14), borrowing.DueDate)
	assert.Equal(t, 1, repo.decrements)
}

func TestLibraryServiceBorrowLastCopyGone(t *testing.T) {
	repo := &mockLibraryRepo{books: map[string]*models.Book{"b1": {ID: "b1", TotalCopies: 2, AvailableCopies: 0}}}
	svc := newLibraryService(repo)

	_, err := svc.Borrow(context.Background(), BorrowBookRequest{BookID: "b1", StudentID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestLibraryServiceBorrowCompensatesOnCreateFailure(t *testing.T) {
	repo := &mockLibraryRepo{
		books:     map[string]*models.Book{"b1": {ID: "b1", TotalCopies: 1, AvailableCopies: 1}},
		createErr: sql.ErrConnDone,
	}
	svc := newLibraryService(repo)

	_, err := svc.Borrow(context.Background(), BorrowBookRequest{BookID: "b1", StudentID: "s1"})
	require.Error(t, err)
	assert.Equal(t, 1, repo.increments)
	assert.Equal(t, 1, repo.books["b1"].AvailableCopies)
}

func TestLibraryServiceReturnComputesFine(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockLibraryRepo{
		books:      map[string]*models.Book{"b1": {ID: "b1", TotalCopies: 1}},
		borrowings: map[string]models.BookBorrowing{"l1": {ID: "l1", BookID: "b1", DueDate: due, Status: models.BorrowingStatusBorrowed}},
	}
	svc := newLibraryService(repo)
	// Three days and one hour late rounds up to four chargeable days.
	svc.now = func() time.Time { return due.Add(73 * time.Hour) }

	borrowing, err := svc.Return(context.Background(), "l1")
	require.NoError(t, err)
	// A late return closes the loan as overdue, not returned.
	assert.Equal(t, models.BorrowingStatusOverdue, borrowing.Status)
	assert.Equal(t, models.BorrowingStatusOverdue, repo.closedStatus)
	assert.Equal(t, 40.0, borrowing.FineAmount)
	assert.Equal(t, 1, repo.increments)
}

func TestLibraryServiceReturnOnTimeNoFine(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockLibraryRepo{
		books:      map[string]*models.Book{"b1": {ID: "b1"}},
		borrowings: map[string]models.BookBorrowing{"l1": {ID: "l1", BookID: "b1", DueDate: due, Status: models.BorrowingStatusBorrowed}},
	}
	svc := newLibraryService(repo)
	svc.now = func() time.Time { return due.Add(-time.Hour) }

	borrowing, err := svc.Return(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, models.BorrowingStatusReturned, borrowing.Status)
	assert.Equal(t, models.BorrowingStatusReturned, repo.closedStatus)
	assert.Zero(t, borrowing.FineAmount)
}

func TestLibraryServiceDoubleReturnConflicts(t *testing.T) {
	repo := &mockLibraryRepo{
		borrowings:    map[string]models.BookBorrowing{"l1": {ID: "l1", BookID: "b1", Status: models.BorrowingStatusReturned}},
		returnedClose: true,
	}
	svc := newLibraryService(repo)

	_, err := svc.Return(context.Background(), "l1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLibraryServiceRenew(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockLibraryRepo{
		borrowings:   map[string]models.BookBorrowing{"l1": {ID: "l1", DueDate: due, Status: models.BorrowingStatusBorrowed, RenewedCount: 1}},
		renewAllowed: true,
	}
	svc := newLibraryService(repo)

	borrowing, err := svc.Renew(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, due.AddDate(0, 0, 14), borrowing.DueDate)
	assert.Equal(t, 2, borrowing.RenewedCount)
}

func TestLibraryServiceRenewLimitReached(t *testing.T) {
	repo := &mockLibraryRepo{
		borrowings:   map[string]models.BookBorrowing{"l1": {ID: "l1", Status: models.BorrowingStatusBorrowed, RenewedCount: 2}},
		renewAllowed: false,
	}
	svc := newLibraryService(repo)

	_, err := svc.Renew(context.Background(), "l1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestLibraryServiceRenewClosedLoanRejected(t *testing.T) {
	repo := &mockLibraryRepo{
		borrowings: map[string]models.BookBorrowing{"l1": {ID: "l1", Status: models.BorrowingStatusReturned}},
	}
	svc := newLibraryService(repo)

	_, err := svc.Renew(context.Background(), "l1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestLibraryServiceFineFor(t *testing.T) {
	svc := newLibraryService(&mockLibraryRepo{})
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Zero(t, svc.FineFor(due, due))
	assert.Equal(t, 10.0, svc.FineFor(due, due.Add(time.Hour)))
	assert.Equal(t, 10.0, svc.FineFor(due, due.Add(24*time.Hour)))
	assert.Equal(t, 20.0, svc.FineFor(due, due.Add(25*time.Hour)))
	assert.Equal(t, 70.0, svc.FineFor(due, due.Add(7*24*time.Hour)))
}
