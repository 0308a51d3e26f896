package models

import "time"

// Student represents a learner registered at the university.
type Student struct {
	ID             string    `db:"id" json:"id"`
	RegistrationNo string    `db:"registration_no" json:"registration_no"`
	FullName       string    `db:"full_name" json:"full_name"`
	Gender         string    `db:"gender" json:"gender"`
	BirthDate      time.Time `db:"birth_date" json:"birth_date"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	Address        string    `db:"address" json:"address"`
	ProgramID      string    `db:"program_id" json:"program_id"`
	CampusID       string    `db:"campus_id" json:"campus_id"`
	Batch          string    `db:"batch" json:"batch"`
	Semester       int       `db:"semester" json:"semester"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ProgramID string
	CampusID  string
	Batch     string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains student information with program context.
type StudentDetail struct {
	Student
	ProgramName *string `db:"program_name" json:"program_name,omitempty"`
	CampusName  *string `db:"campus_name" json:"campus_name,omitempty"`
}
