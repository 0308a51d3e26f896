package models

import "time"

// Exam represents a scheduled examination for a course.
type Exam struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	CourseID   string    `db:"course_id" json:"course_id"`
	ProgramID  string    `db:"program_id" json:"program_id"`
	Semester   int       `db:"semester" json:"semester"`
	ExamDate   time.Time `db:"exam_date" json:"exam_date"`
	TotalMarks float64   `db:"total_marks" json:"total_marks"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Result stores a student's marks for one exam with derived grading fields.
// Percentage, grade and GPA are recomputed in full whenever marks change.
type Result struct {
	ID            string    `db:"id" json:"id"`
	ExamID        string    `db:"exam_id" json:"exam_id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	ObtainedMarks float64   `db:"obtained_marks" json:"obtained_marks"`
	TotalMarks    float64   `db:"total_marks" json:"total_marks"`
	Percentage    float64   `db:"percentage" json:"percentage"`
	Grade         string    `db:"grade" json:"grade"`
	GPA           float64   `db:"gpa" json:"gpa"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ResultFilter scopes result listings.
type ResultFilter struct {
	ExamID    string
	StudentID string
	Page      int
	PageSize  int
}

// ExamFilter scopes exam listings.
type ExamFilter struct {
	ProgramID string
	CourseID  string
	Semester  int
	Page      int
	PageSize  int
}

// TranscriptRow is one graded exam on a student transcript.
type TranscriptRow struct {
	ExamID      string  `db:"exam_id" json:"exam_id"`
	ExamName    string  `db:"exam_name" json:"exam_name"`
	CourseTitle string  `db:"course_title" json:"course_title"`
	Percentage  float64 `db:"percentage" json:"percentage"`
	Grade       string  `db:"grade" json:"grade"`
	GPA         float64 `db:"gpa" json:"gpa"`
}

// Transcript aggregates a student's results with the averaged CGPA.
type Transcript struct {
	StudentID string          `json:"student_id"`
	Rows      []TranscriptRow `json:"rows"`
	CGPA      float64         `json:"cgpa"`
}
