package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ahmad-watoo/ams-api/internal/models"
)

// CertificateRepository manages certificate requests and issued certificates.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs a CertificateRepository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// ListRequests returns certificate requests matching the filter.
func (r *CertificateRepository) ListRequests(ctx context.Context, filter models.CertificateRequestFilter) ([]models.CertificateRequest, int, error) {
	base := "FROM certificate_requests cr"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("cr.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("cr.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT cr.id, cr.student_id, cr.certificate_type, cr.status, cr.fee_paid,
        cr.rejection_reason, cr.reviewed_by, cr.reviewed_at, cr.created_at, cr.updated_at
        %s ORDER BY cr.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var requests []models.CertificateRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list certificate requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(cr.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count certificate requests: %w", err)
	}
	return requests, total, nil
}

// FindRequestByID fetches one certificate request.
func (r *CertificateRepository) FindRequestByID(ctx context.Context, id string) (*models.CertificateRequest, error) {
	const query = `SELECT id, student_id, certificate_type, status, fee_paid, rejection_reason, reviewed_by, reviewed_at, created_at, updated_at
        FROM certificate_requests WHERE id = $1`
	var request models.CertificateRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// CreateRequest inserts a pending request.
func (r *CertificateRepository) CreateRequest(ctx context.Context, request *models.CertificateRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now
	const query = `INSERT INTO certificate_requests (id, student_id, certificate_type, status, fee_paid, created_at, updated_at)
        VALUES (:id, :student_id, :certificate_type, :status, :fee_paid, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create certificate request: %w", err)
	}
	return nil
}

// UpdateRequestStatus records a review decision. The expected-status guard
// keeps concurrent reviews from double-applying a transition; false means
// the request was not in the expected state.
func (r *CertificateRepository) UpdateRequestStatus(ctx context.Context, id string, from, to models.CertificateRequestStatus, rejectionReason *string, reviewedBy *string) (bool, error) {
	now := time.Now().UTC()
	const query = `UPDATE certificate_requests SET status = $3, rejection_reason = $4, reviewed_by = COALESCE($5, reviewed_by),
        reviewed_at = CASE WHEN $5 IS NULL THEN reviewed_at ELSE $6 END, updated_at = $6
        WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to, rejectionReason, reviewedBy, now)
	if err != nil {
		return false, fmt.Errorf("update request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update request status: %w", err)
	}
	return affected > 0, nil
}

// MarkFeePaid flags the certificate fee as settled.
func (r *CertificateRepository) MarkFeePaid(ctx context.Context, id string) error {
	const query = `UPDATE certificate_requests SET fee_paid = true, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark fee paid: %w", err)
	}
	return nil
}

// CreateCertificate issues a certificate, deriving the yearly sequence for
// the certificate number inside the INSERT so concurrent issues cannot
// collide.
func (r *CertificateRepository) CreateCertificate(ctx context.Context, certificate *models.Certificate) error {
	if certificate.ID == "" {
		certificate.ID = uuid.NewString()
	}
	if certificate.IssuedAt.IsZero() {
		certificate.IssuedAt = time.Now().UTC()
	}
	year := certificate.IssuedAt.Year()
	const query = `INSERT INTO certificates (id, request_id, certificate_number, verification_code, student_id, student_name, program_name, certificate_type, issued_at)
        VALUES ($1, $2, 'CERT-' || $3::text || '-' || LPAD((COALESCE((SELECT MAX(SPLIT_PART(certificate_number, '-', 3)::int) FROM certificates WHERE certificate_number LIKE 'CERT-' || $3::text || '-%'), 0) + 1)::text, 5, '0'), $4, $5, $6, $7, $8, $9)
        RETURNING certificate_number`
	if err := r.db.GetContext(ctx, &certificate.CertificateNumber, query,
		certificate.ID, certificate.RequestID, year, certificate.VerificationCode,
		certificate.StudentID, certificate.StudentName, certificate.ProgramName,
		certificate.CertificateType, certificate.IssuedAt); err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// FindCertificateByID fetches one issued certificate.
func (r *CertificateRepository) FindCertificateByID(ctx context.Context, id string) (*models.Certificate, error) {
	const query = `SELECT id, request_id, certificate_number, verification_code, student_id, student_name, program_name, certificate_type, pdf_path, issued_at
        FROM certificates WHERE id = $1`
	var certificate models.Certificate
	if err := r.db.GetContext(ctx, &certificate, query, id); err != nil {
		return nil, err
	}
	return &certificate, nil
}

// FindCertificateByRequestID fetches the certificate issued for a request.
func (r *CertificateRepository) FindCertificateByRequestID(ctx context.Context, requestID string) (*models.Certificate, error) {
	const query = `SELECT id, request_id, certificate_number, verification_code, student_id, student_name, program_name, certificate_type, pdf_path, issued_at
        FROM certificates WHERE request_id = $1`
	var certificate models.Certificate
	if err := r.db.GetContext(ctx, &certificate, query, requestID); err != nil {
		return nil, err
	}
	return &certificate, nil
}

// FindCertificateByVerificationCode looks a certificate up for public
// verification. The printed certificate number is accepted as well.
func (r *CertificateRepository) FindCertificateByVerificationCode(ctx context.Context, code string) (*models.Certificate, error) {
	const query = `SELECT id, request_id, certificate_number, verification_code, student_id, student_name, program_name, certificate_type, pdf_path, issued_at
        FROM certificates WHERE verification_code = $1 OR certificate_number = $1`
	var certificate models.Certificate
	if err := r.db.GetContext(ctx, &certificate, query, code); err != nil {
		return nil, err
	}
	return &certificate, nil
}

// UpdateCertificatePDFPath records where the rendered PDF was stored.
func (r *CertificateRepository) UpdateCertificatePDFPath(ctx context.Context, id, pdfPath string) error {
	const query = `UPDATE certificates SET pdf_path = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, pdfPath); err != nil {
		return fmt.Errorf("update certificate pdf path: %w", err)
	}
	return nil
}
