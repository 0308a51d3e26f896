package models

import "time"

// Campus represents one physical campus of the university.
type Campus struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	City      string    `db:"city" json:"city"`
	Address   string    `db:"address" json:"address"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Program represents a degree program.
type Program struct {
	ID                string    `db:"id" json:"id"`
	Code              string    `db:"code" json:"code"`
	Name              string    `db:"name" json:"name"`
	Department        string    `db:"department" json:"department"`
	DurationSemesters int       `db:"duration_semesters" json:"duration_semesters"`
	Active            bool      `db:"active" json:"active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Course represents a course taught within a program.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	Semester    int       `db:"semester" json:"semester"`
	CreditHours int       `db:"credit_hours" json:"credit_hours"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter scopes course listings.
type CourseFilter struct {
	ProgramID string
	Semester  int
	Search    string
	Page      int
	PageSize  int
}
