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

// LibraryRepository manages books and borrowings.
type LibraryRepository struct {
	db *sqlx.DB
}

// NewLibraryRepository constructs a LibraryRepository.
func NewLibraryRepository(db *sqlx.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// ListBooks returns books matching the filter.
func (r *LibraryRepository) ListBooks(ctx context.Context, filter models.BookFilter) ([]models.Book, int, error) {
	base := "FROM books b"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("b.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(b.title) LIKE $%d OR LOWER(b.author) LIKE $%d OR b.isbn = $%d)", len(args)+1, len(args)+1, len(args)+2))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%", filter.Search)
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

	query := fmt.Sprintf(`SELECT b.id, b.isbn, b.title, b.author, b.category, b.total_copies, b.available_copies, b.created_at, b.updated_at
        %s ORDER BY b.title LIMIT %d OFFSET %d`, base, size, offset)

	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(b.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}
	return books, total, nil
}

// FindBookByID fetches one book.
func (r *LibraryRepository) FindBookByID(ctx context.Context, id string) (*models.Book, error) {
	const query = `SELECT id, isbn, title, author, category, total_copies, available_copies, created_at, updated_at FROM books WHERE id = $1`
	var book models.Book
	if err := r.db.GetContext(ctx, &book, query, id); err != nil {
		return nil, err
	}
	return &book, nil
}

// CreateBook inserts a book row. available_copies starts equal to total_copies.
func (r *LibraryRepository) CreateBook(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now
	book.AvailableCopies = book.TotalCopies
	const query = `INSERT INTO books (id, isbn, title, author, category, total_copies, available_copies, created_at, updated_at)
        VALUES (:id, :isbn, :title, :author, :category, :total_copies, :available_copies, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, book); err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// UpdateBook modifies book metadata and adjusts available copies by the
// delta of total copies, never below zero.
func (r *LibraryRepository) UpdateBook(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now().UTC()
	const query = `UPDATE books SET isbn = :isbn, title = :title, author = :author, category = :category,
        total_copies = :total_copies,
        available_copies = GREATEST(available_copies + (:total_copies - total_copies), 0),
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, book); err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

// DecrementAvailableCopies takes one copy if any remain. The availability
// check lives in the UPDATE itself, so two concurrent borrows of the last
// copy cannot both succeed; false means no copy was available.
func (r *LibraryRepository) DecrementAvailableCopies(ctx context.Context, bookID string) (bool, error) {
	const query = `UPDATE books SET available_copies = available_copies - 1, updated_at = $2
        WHERE id = $1 AND available_copies > 0`
	result, err := r.db.ExecContext(ctx, query, bookID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("decrement copies: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrement copies: %w", err)
	}
	return affected > 0, nil
}

// IncrementAvailableCopies returns one copy to the shelf, capped at total_copies.
func (r *LibraryRepository) IncrementAvailableCopies(ctx context.Context, bookID string) error {
	const query = `UPDATE books SET available_copies = available_copies + 1, updated_at = $2
        WHERE id = $1 AND available_copies < total_copies`
	if _, err := r.db.ExecContext(ctx, query, bookID, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment copies: %w", err)
	}
	return nil
}

// ListBorrowings returns borrowings matching the filter.
func (r *LibraryRepository) ListBorrowings(ctx context.Context, filter models.BorrowingFilter) ([]models.BookBorrowing, int, error) {
	base := "FROM book_borrowings bb"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.BookID != "" {
		conditions = append(conditions, fmt.Sprintf("bb.book_id = $%d", len(args)+1))
		args = append(args, filter.BookID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("bb.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("bb.status = $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT bb.id, bb.book_id, bb.student_id, bb.borrowed_at, bb.due_date, bb.return_date,
        bb.status, bb.fine_amount, bb.renewed_count, bb.created_at, bb.updated_at
        %s ORDER BY bb.borrowed_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var borrowings []models.BookBorrowing
	if err := r.db.SelectContext(ctx, &borrowings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list borrowings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(bb.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count borrowings: %w", err)
	}
	return borrowings, total, nil
}

// FindBorrowingByID fetches one borrowing.
func (r *LibraryRepository) FindBorrowingByID(ctx context.Context, id string) (*models.BookBorrowing, error) {
	const query = `SELECT id, book_id, student_id, borrowed_at, due_date, return_date, status, fine_amount, renewed_count, created_at, updated_at
        FROM book_borrowings WHERE id = $1`
	var borrowing models.BookBorrowing
	if err := r.db.GetContext(ctx, &borrowing, query, id); err != nil {
		return nil, err
	}
	return &borrowing, nil
}

// CreateBorrowing inserts a loan row.
func (r *LibraryRepository) CreateBorrowing(ctx context.Context, borrowing *models.BookBorrowing) error {
	if borrowing.ID == "" {
		borrowing.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	borrowing.CreatedAt = now
	borrowing.UpdatedAt = now
	const query = `INSERT INTO book_borrowings (id, book_id, student_id, borrowed_at, due_date, status, fine_amount, renewed_count, created_at, updated_at)
        VALUES (:id, :book_id, :student_id, :borrowed_at, :due_date, :status, :fine_amount, :renewed_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, borrowing); err != nil {
		return fmt.Errorf("create borrowing: %w", err)
	}
	return nil
}

// Renew extends the due date, guarded in the statement so a borrowing past
// the renewal cap or already returned cannot be renewed; false means the
// guard rejected it.
func (r *LibraryRepository) Renew(ctx context.Context, id string, newDueDate time.Time, maxRenewals int) (bool, error) {
	const query = `UPDATE book_borrowings SET due_date = $2, renewed_count = renewed_count + 1, updated_at = $3
        WHERE id = $1 AND status = $4 AND renewed_count < $5`
	result, err := r.db.ExecContext(ctx, query, id, newDueDate, time.Now().UTC(), models.BorrowingStatusBorrowed, maxRenewals)
	if err != nil {
		return false, fmt.Errorf("renew borrowing: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("renew borrowing: %w", err)
	}
	return affected > 0, nil
}

// MarkReturned closes a loan, recording return time, any fine and the
// closing status. A late return closes as overdue, an on-time one as
// returned. The return_date guard makes a double return a no-op; false
// means the loan was already closed.
func (r *LibraryRepository) MarkReturned(ctx context.Context, id string, returnedAt time.Time, fine float64, status models.BorrowingStatus) (bool, error) {
	const query = `UPDATE book_borrowings SET status = $2, return_date = $3, fine_amount = $4, updated_at = $3
        WHERE id = $1 AND return_date IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, status, returnedAt, fine)
	if err != nil {
		return false, fmt.Errorf("mark returned: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark returned: %w", err)
	}
	return affected > 0, nil
}

// MarkOverdue flags open loans past their due date.
func (r *LibraryRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	const query = `UPDATE book_borrowings SET status = $1, updated_at = $2
        WHERE status = $3 AND due_date < $2`
	result, err := r.db.ExecContext(ctx, query, models.BorrowingStatusOverdue, asOf, models.BorrowingStatusBorrowed)
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return result.RowsAffected()
}
