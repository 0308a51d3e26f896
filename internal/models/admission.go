package models

import "time"

// ApplicationStatus tracks the review state of an admission application.
type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
)

// AdmissionApplication represents an admission application row.
type AdmissionApplication struct {
	ID            string            `db:"id" json:"id"`
	ApplicationNo string            `db:"application_no" json:"application_no"`
	FullName      string            `db:"full_name" json:"full_name"`
	Email         string            `db:"email" json:"email"`
	Phone         string            `db:"phone" json:"phone"`
	ProgramID     string            `db:"program_id" json:"program_id"`
	CampusID      string            `db:"campus_id" json:"campus_id"`
	Batch         string            `db:"batch" json:"batch"`
	PriorScore    float64           `db:"prior_score" json:"prior_score"`
	TestScore     float64           `db:"test_score" json:"test_score"`
	MeritScore    float64           `db:"merit_score" json:"merit_score"`
	Status        ApplicationStatus `db:"status" json:"status"`
	Remarks       *string           `db:"remarks" json:"remarks,omitempty"`
	ReviewedBy    *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// ApplicationFilter scopes admission application listings.
type ApplicationFilter struct {
	Search    string
	ProgramID string
	CampusID  string
	Batch     string
	Status    string
	Page      int
	PageSize  int
}

// MeritEntry is one row of a merit list ordered by merit score.
type MeritEntry struct {
	ApplicationID string  `db:"application_id" json:"application_id"`
	ApplicationNo string  `db:"application_no" json:"application_no"`
	FullName      string  `db:"full_name" json:"full_name"`
	MeritScore    float64 `db:"merit_score" json:"merit_score"`
	Rank          int     `db:"rank" json:"rank"`
}
