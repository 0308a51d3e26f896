package models

import "time"

// CourseMaterial is uploaded learning material metadata for a course.
type CourseMaterial struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	Title      string    `db:"title" json:"title"`
	Kind       string    `db:"kind" json:"kind"`
	URL        string    `db:"url" json:"url"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Assignment is a graded task published for a course.
type Assignment struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	DueDate     time.Time `db:"due_date" json:"due_date"`
	TotalMarks  float64   `db:"total_marks" json:"total_marks"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// MaterialFilter scopes course material listings.
type MaterialFilter struct {
	CourseID string
	Page     int
	PageSize int
}

// AssignmentFilter scopes assignment listings.
type AssignmentFilter struct {
	CourseID string
	Page     int
	PageSize int
}
