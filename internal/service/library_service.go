package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type libraryRepository interface {
	ListBooks(ctx context.Context, filter models.BookFilter) ([]models.Book, int, error)
	FindBookByID(ctx context.Context, id string) (*models.Book, error)
	CreateBook(ctx context.Context, book *models.Book) error
	UpdateBook(ctx context.Context, book *models.Book) error
	DecrementAvailableCopies(ctx context.Context, bookID string) (bool, error)
	IncrementAvailableCopies(ctx context.Context, bookID string) error
	ListBorrowings(ctx context.Context, filter models.BorrowingFilter) ([]models.BookBorrowing, int, error)
	FindBorrowingByID(ctx context.Context, id string) (*models.BookBorrowing, error)
	CreateBorrowing(ctx context.Context, borrowing *models.BookBorrowing) error
	Renew(ctx context.Context, id string, newDueDate time.Time, maxRenewals int) (bool, error)
	MarkReturned(ctx context.Context, id string, returnedAt time.Time, fine float64, status models.BorrowingStatus) (bool, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// LibraryPolicy captures the configurable lending rules.
type LibraryPolicy struct {
	FinePerDay  float64
	LoanDays    int
	RenewalDays int
	MaxRenewals int
}

// DefaultLibraryPolicy is the standard lending policy.
var DefaultLibraryPolicy = LibraryPolicy{
	FinePerDay:  10,
	LoanDays:    14,
	RenewalDays: 14,
	MaxRenewals: 2,
}

// CreateBookRequest holds payload for adding a book title.
type CreateBookRequest struct {
	ISBN        string `json:"isbn" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Category    string `json:"category"`
	TotalCopies int    `json:"total_copies" validate:"required,min=1"`
}

// UpdateBookRequest holds payload for editing a book title. Changing the
// total copies shifts the available count by the same delta.
type UpdateBookRequest struct {
	ISBN        string `json:"isbn" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Category    string `json:"category"`
	TotalCopies int    `json:"total_copies" validate:"required,min=1"`
}

// BorrowBookRequest holds payload for lending a copy.
type BorrowBookRequest struct {
	BookID    string `json:"book_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

// LibraryService handles the book catalogue and lending lifecycle.
type LibraryService struct {
	repo      libraryRepository
	policy    LibraryPolicy
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLibraryService constructs the library service.
func NewLibraryService(repo libraryRepository, policy LibraryPolicy, validate *validator.Validate, logger *zap.Logger) *LibraryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.FinePerDay <= 0 {
		policy = DefaultLibraryPolicy
	}
	return &LibraryService{repo: repo, policy: policy, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ListBooks returns books and pagination metadata.
func (s *LibraryService) ListBooks(ctx context.Context, filter models.BookFilter) ([]models.Book, *models.Pagination, error) {
	books, total, err := s.repo.ListBooks(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list books")
	}
	return books, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetBook returns one book.
func (s *LibraryService) GetBook(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.repo.FindBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "book not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load book")
	}
	return book, nil
}

// CreateBook adds a title to the catalogue.
func (s *LibraryService) CreateBook(ctx context.Context, req CreateBookRequest) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid book payload")
	}
	book := &models.Book{
		ISBN:        req.ISBN,
		Title:       req.Title,
		Author:      req.Author,
		Category:    req.Category,
		TotalCopies: req.TotalCopies,
	}
	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create book")
	}
	return book, nil
}

// UpdateBook edits a catalogue entry.
func (s *LibraryService) UpdateBook(ctx context.Context, id string, req UpdateBookRequest) (*models.Book, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid book payload")
	}
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	book.ISBN = req.ISBN
	book.Title = req.Title
	book.Author = req.Author
	book.Category = req.Category
	book.TotalCopies = req.TotalCopies
	if err := s.repo.UpdateBook(ctx, book); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update book")
	}
	return book, nil
}

// Borrow lends one copy to a student. The copy count check runs inside the
// database update, so the last copy can only go to one borrower.
func (s *LibraryService) Borrow(ctx context.Context, req BorrowBookRequest) (*models.BookBorrowing, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid borrow payload")
	}
	if _, err := s.GetBook(ctx, req.BookID); err != nil {
		return nil, err
	}

	taken, err := s.repo.DecrementAvailableCopies(ctx, req.BookID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve copy")
	}
	if !taken {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no copies available")
	}

	now := s.now()
	borrowing := &models.BookBorrowing{
		BookID:     req.BookID,
		StudentID:  req.StudentID,
		BorrowedAt: now,
		DueDate:    now.AddDate(0, 0, s.policy.LoanDays),
		Status:     models.BorrowingStatusBorrowed,
	}
	if err := s.repo.CreateBorrowing(ctx, borrowing); err != nil {
		// Return the reserved copy so the inventory stays consistent.
		if incErr := s.repo.IncrementAvailableCopies(ctx, req.BookID); incErr != nil {
			s.logger.Error("failed to release reserved copy", zap.String("book_id", req.BookID), zap.Error(incErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create borrowing")
	}
	return borrowing, nil
}

// Return closes a loan, computes any fine and releases the copy. A return
// past the due date closes the borrowing as overdue, an on-time return as
// returned.
func (s *LibraryService) Return(ctx context.Context, borrowingID string) (*models.BookBorrowing, error) {
	borrowing, err := s.getBorrowing(ctx, borrowingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fine := s.FineFor(borrowing.DueDate, now)
	status := models.BorrowingStatusReturned
	if fine > 0 {
		status = models.BorrowingStatusOverdue
	}

	closed, err := s.repo.MarkReturned(ctx, borrowingID, now, fine, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close borrowing")
	}
	if !closed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "borrowing already returned")
	}

	if err := s.repo.IncrementAvailableCopies(ctx, borrowing.BookID); err != nil {
		s.logger.Error("failed to release copy on return", zap.String("book_id", borrowing.BookID), zap.Error(err))
	}

	borrowing.Status = status
	borrowing.ReturnDate = &now
	borrowing.FineAmount = fine
	return borrowing, nil
}

// Renew extends a loan by the renewal period. The renewal cap is enforced
// by the guarded update, not by the pre-read.
func (s *LibraryService) Renew(ctx context.Context, borrowingID string) (*models.BookBorrowing, error) {
	borrowing, err := s.getBorrowing(ctx, borrowingID)
	if err != nil {
		return nil, err
	}
	if borrowing.Status != models.BorrowingStatusBorrowed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only open borrowings can be renewed")
	}

	newDue := borrowing.DueDate.AddDate(0, 0, s.policy.RenewalDays)
	renewed, err := s.repo.Renew(ctx, borrowingID, newDue, s.policy.MaxRenewals)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to renew borrowing")
	}
	if !renewed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "renewal limit reached")
	}

	borrowing.DueDate = newDue
	borrowing.RenewedCount++
	return borrowing, nil
}

// ListBorrowings returns borrowings and pagination metadata.
func (s *LibraryService) ListBorrowings(ctx context.Context, filter models.BorrowingFilter) ([]models.BookBorrowing, *models.Pagination, error) {
	borrowings, total, err := s.repo.ListBorrowings(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list borrowings")
	}
	return borrowings, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// FlagOverdue marks open loans past their due date as overdue.
func (s *LibraryService) FlagOverdue(ctx context.Context) (int64, error) {
	flagged, err := s.repo.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to flag overdue borrowings")
	}
	return flagged, nil
}

// FineFor computes the fine for returning at returnedAt against a due date.
// Partial days count as whole days; on-time returns cost nothing.
func (s *LibraryService) FineFor(dueDate, returnedAt time.Time) float64 {
	if !returnedAt.After(dueDate) {
		return 0
	}
	overdueDays := math.Ceil(returnedAt.Sub(dueDate).Hours() / 24)
	return overdueDays * s.policy.FinePerDay
}

func (s *LibraryService) getBorrowing(ctx context.Context, id string) (*models.BookBorrowing, error) {
	borrowing, err := s.repo.FindBorrowingByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "borrowing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load borrowing")
	}
	return borrowing, nil
}
