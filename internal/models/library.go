package models

import "time"

// Book represents a library title with copy inventory.
type Book struct {
	ID              string    `db:"id" json:"id"`
	ISBN            string    `db:"isbn" json:"isbn"`
	Title           string    `db:"title" json:"title"`
	Author          string    `db:"author" json:"author"`
	Category        string    `db:"category" json:"category"`
	TotalCopies     int       `db:"total_copies" json:"total_copies"`
	AvailableCopies int       `db:"available_copies" json:"available_copies"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// BorrowingStatus is the lifecycle state of a borrowing.
type BorrowingStatus string

const (
	BorrowingStatusBorrowed BorrowingStatus = "borrowed"
	BorrowingStatusReturned BorrowingStatus = "returned"
	BorrowingStatusOverdue  BorrowingStatus = "overdue"
)

// BookBorrowing tracks one loan of a book copy.
// fine_amount is positive only when the return happened after the due date;
// renewed_count is capped by the library policy (default 2).
type BookBorrowing struct {
	ID           string          `db:"id" json:"id"`
	BookID       string          `db:"book_id" json:"book_id"`
	StudentID    string          `db:"student_id" json:"student_id"`
	BorrowedAt   time.Time       `db:"borrowed_at" json:"borrowed_at"`
	DueDate      time.Time       `db:"due_date" json:"due_date"`
	ReturnDate   *time.Time      `db:"return_date" json:"return_date,omitempty"`
	Status       BorrowingStatus `db:"status" json:"status"`
	FineAmount   float64         `db:"fine_amount" json:"fine_amount"`
	RenewedCount int             `db:"renewed_count" json:"renewed_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// BookFilter scopes book listings.
type BookFilter struct {
	Search   string
	Category string
	Page     int
	PageSize int
}

// BorrowingFilter scopes borrowing listings.
type BorrowingFilter struct {
	BookID    string
	StudentID string
	Status    string
	Page      int
	PageSize  int
}
