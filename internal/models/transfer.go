package models

import "time"

// TransferStatus is the lifecycle state of a campus transfer request.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusApproved  TransferStatus = "approved"
	TransferStatusRejected  TransferStatus = "rejected"
	TransferStatusCompleted TransferStatus = "completed"
)

// TransferRequest tracks moving a student between campuses.
type TransferRequest struct {
	ID           string         `db:"id" json:"id"`
	StudentID    string         `db:"student_id" json:"student_id"`
	FromCampusID string         `db:"from_campus_id" json:"from_campus_id"`
	ToCampusID   string         `db:"to_campus_id" json:"to_campus_id"`
	Reason       string         `db:"reason" json:"reason"`
	Status       TransferStatus `db:"status" json:"status"`
	ReviewedBy   *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CompletedAt  *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// TransferFilter scopes transfer request listings.
type TransferFilter struct {
	StudentID string
	CampusID  string
	Status    string
	Page      int
	PageSize  int
}
