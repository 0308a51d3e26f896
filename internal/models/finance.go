package models

import "time"

// FeeStructure defines the fee heads for a program semester.
type FeeStructure struct {
	ID           string    `db:"id" json:"id"`
	ProgramID    string    `db:"program_id" json:"program_id"`
	Semester     int       `db:"semester" json:"semester"`
	TuitionFee   float64   `db:"tuition_fee" json:"tuition_fee"`
	AdmissionFee float64   `db:"admission_fee" json:"admission_fee"`
	ExamFee      float64   `db:"exam_fee" json:"exam_fee"`
	LibraryFee   float64   `db:"library_fee" json:"library_fee"`
	MiscFee      float64   `db:"misc_fee" json:"misc_fee"`
	TotalFee     float64   `db:"total_fee" json:"total_fee"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FeePayment records a received student fee payment.
type FeePayment struct {
	ID        string    `db:"id" json:"id"`
	ReceiptNo string    `db:"receipt_no" json:"receipt_no"`
	StudentID string    `db:"student_id" json:"student_id"`
	Amount    float64   `db:"amount" json:"amount"`
	Method    string    `db:"method" json:"method"`
	Period    string    `db:"period" json:"period"`
	Remarks   string    `db:"remarks" json:"remarks"`
	PaidAt    time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PaymentFilter scopes fee payment listings.
type PaymentFilter struct {
	StudentID string
	Period    string
	Page      int
	PageSize  int
}
