package models

import "time"

// CertificateRequestStatus is the review state of a certificate request.
type CertificateRequestStatus string

const (
	CertificateRequestPending    CertificateRequestStatus = "pending"
	CertificateRequestApproved   CertificateRequestStatus = "approved"
	CertificateRequestRejected   CertificateRequestStatus = "rejected"
	CertificateRequestProcessing CertificateRequestStatus = "processing"
	CertificateRequestReady      CertificateRequestStatus = "ready"
)

// CertificateRequest captures a student's request for an official certificate.
// fee_paid is an orthogonal gate: a request is only processed into a
// Certificate once it is approved and the fee has been paid.
type CertificateRequest struct {
	ID              string                   `db:"id" json:"id"`
	StudentID       string                   `db:"student_id" json:"student_id"`
	CertificateType string                   `db:"certificate_type" json:"certificate_type"`
	Status          CertificateRequestStatus `db:"status" json:"status"`
	FeePaid         bool                     `db:"fee_paid" json:"fee_paid"`
	RejectionReason *string                  `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ReviewedBy      *string                  `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time               `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt       time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time                `db:"updated_at" json:"updated_at"`
}

// Certificate is an immutable issued certificate.
type Certificate struct {
	ID                string    `db:"id" json:"id"`
	RequestID         string    `db:"request_id" json:"request_id"`
	CertificateNumber string    `db:"certificate_number" json:"certificate_number"`
	VerificationCode  string    `db:"verification_code" json:"verification_code"`
	StudentID         string    `db:"student_id" json:"student_id"`
	StudentName       string    `db:"student_name" json:"student_name"`
	ProgramName       string    `db:"program_name" json:"program_name"`
	CertificateType   string    `db:"certificate_type" json:"certificate_type"`
	PDFPath           *string   `db:"pdf_path" json:"pdf_path,omitempty"`
	IssuedAt          time.Time `db:"issued_at" json:"issued_at"`
}

// CertificateVerification is the read-only result of a verification lookup.
type CertificateVerification struct {
	Valid       bool         `json:"valid"`
	Certificate *Certificate `json:"certificate,omitempty"`
}

// CertificateRequestFilter scopes request listings.
type CertificateRequestFilter struct {
	StudentID string
	Status    string
	Page      int
	PageSize  int
}
