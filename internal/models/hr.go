package models

import "time"

// Employee represents a staff or faculty member.
type Employee struct {
	ID          string    `db:"id" json:"id"`
	EmployeeNo  string    `db:"employee_no" json:"employee_no"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Designation string    `db:"designation" json:"designation"`
	Department  string    `db:"department" json:"department"`
	CampusID    string    `db:"campus_id" json:"campus_id"`
	JoiningDate time.Time `db:"joining_date" json:"joining_date"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter scopes employee listings.
type EmployeeFilter struct {
	Search     string
	Department string
	CampusID   string
	Active     *bool
	Page       int
	PageSize   int
}
