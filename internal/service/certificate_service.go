package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
	"github.com/ahmad-watoo/ams-api/pkg/export"
	"github.com/ahmad-watoo/ams-api/pkg/jobs"
)

// CertificateJobType identifies queued certificate rendering jobs.
const CertificateJobType = "certificate.render"

type certificateRepository interface {
	ListRequests(ctx context.Context, filter models.CertificateRequestFilter) ([]models.CertificateRequest, int, error)
	FindRequestByID(ctx context.Context, id string) (*models.CertificateRequest, error)
	CreateRequest(ctx context.Context, request *models.CertificateRequest) error
	UpdateRequestStatus(ctx context.Context, id string, from, to models.CertificateRequestStatus, rejectionReason *string, reviewedBy *string) (bool, error)
	MarkFeePaid(ctx context.Context, id string) error
	CreateCertificate(ctx context.Context, certificate *models.Certificate) error
	FindCertificateByID(ctx context.Context, id string) (*models.Certificate, error)
	FindCertificateByRequestID(ctx context.Context, requestID string) (*models.Certificate, error)
	FindCertificateByVerificationCode(ctx context.Context, code string) (*models.Certificate, error)
	UpdateCertificatePDFPath(ctx context.Context, id, pdfPath string) error
}

type certificateStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type certificateRenderer interface {
	RenderCertificate(doc export.CertificateDocument) ([]byte, error)
}

type certificateStore interface {
	Save(filename string, data []byte) (string, error)
}

type certificateSigner interface {
	Generate(docID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (docID, relPath string, expiresAt time.Time, err error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// RequestCertificateRequest holds payload for a student certificate request.
type RequestCertificateRequest struct {
	StudentID       string `json:"student_id" validate:"required"`
	CertificateType string `json:"certificate_type" validate:"required,oneof=degree transcript provisional character"`
}

// ReviewCertificateRequest records a registrar decision on a request.
type ReviewCertificateRequest struct {
	Approve         bool    `json:"approve"`
	RejectionReason *string `json:"rejection_reason"`
}

// CertificateService runs the certificate lifecycle: request, review, fee
// gate, asynchronous issue and public verification.
type CertificateService struct {
	repo      certificateRepository
	students  certificateStudentReader
	renderer  certificateRenderer
	store     certificateStore
	signer    certificateSigner
	queue     jobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCertificateService constructs the certificate service.
func NewCertificateService(
	repo certificateRepository,
	students certificateStudentReader,
	renderer certificateRenderer,
	store certificateStore,
	signer certificateSigner,
	queue jobEnqueuer,
	validate *validator.Validate,
	logger *zap.Logger,
) *CertificateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		repo:      repo,
		students:  students,
		renderer:  renderer,
		store:     store,
		signer:    signer,
		queue:     queue,
		validator: validate,
		logger:    logger,
	}
}

// ListRequests returns certificate requests and pagination metadata.
func (s *CertificateService) ListRequests(ctx context.Context, filter models.CertificateRequestFilter) ([]models.CertificateRequest, *models.Pagination, error) {
	requests, total, err := s.repo.ListRequests(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificate requests")
	}
	return requests, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetRequest returns one certificate request.
func (s *CertificateService) GetRequest(ctx context.Context, id string) (*models.CertificateRequest, error) {
	request, err := s.repo.FindRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate request")
	}
	return request, nil
}

// Request submits a new certificate request for a student.
func (s *CertificateService) Request(ctx context.Context, req RequestCertificateRequest) (*models.CertificateRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate request payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	request := &models.CertificateRequest{
		StudentID:       req.StudentID,
		CertificateType: req.CertificateType,
		Status:          models.CertificateRequestPending,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create certificate request")
	}
	return request, nil
}

// Review approves or rejects a pending request.
func (s *CertificateService) Review(ctx context.Context, id, reviewerID string, req ReviewCertificateRequest) (*models.CertificateRequest, error) {
	if !req.Approve && (req.RejectionReason == nil || *req.RejectionReason == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection requires a reason")
	}

	target := models.CertificateRequestApproved
	var reason *string
	if !req.Approve {
		target = models.CertificateRequestRejected
		reason = req.RejectionReason
	}

	moved, err := s.repo.UpdateRequestStatus(ctx, id, models.CertificateRequestPending, target, reason, &reviewerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review certificate request")
	}
	if !moved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "request is not pending review")
	}
	return s.GetRequest(ctx, id)
}

// MarkFeePaid settles the certificate fee gate for a request.
func (s *CertificateService) MarkFeePaid(ctx context.Context, id string) (*models.CertificateRequest, error) {
	request, err := s.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status == models.CertificateRequestRejected {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "rejected requests cannot be paid")
	}
	if err := s.repo.MarkFeePaid(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark fee paid")
	}
	request.FeePaid = true
	return request, nil
}

// Process issues the certificate for an approved, fee-paid request. The
// Certificate row (number + verification code) is persisted synchronously;
// PDF rendering runs on the background queue and the request flips to
// ready when the file lands.
func (s *CertificateService) Process(ctx context.Context, id string) (*models.Certificate, error) {
	request, err := s.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.CertificateRequestApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "request is not approved")
	}
	if !request.FeePaid {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "certificate fee is unpaid")
	}

	moved, err := s.repo.UpdateRequestStatus(ctx, id, models.CertificateRequestApproved, models.CertificateRequestProcessing, nil, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start processing")
	}
	if !moved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request is already being processed")
	}

	student, err := s.students.FindByID(ctx, request.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	programName := ""
	if student.ProgramName != nil {
		programName = *student.ProgramName
	}

	certificate := &models.Certificate{
		RequestID:        id,
		VerificationCode: newVerificationCode(),
		StudentID:        student.ID,
		StudentName:      student.FullName,
		ProgramName:      programName,
		CertificateType:  request.CertificateType,
		IssuedAt:         time.Now().UTC(),
	}
	if err := s.repo.CreateCertificate(ctx, certificate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue certificate")
	}

	if err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    CertificateJobType,
		Payload: certificate.ID,
	}); err != nil {
		s.logger.Error("failed to enqueue certificate render", zap.String("certificate_id", certificate.ID), zap.Error(err))
	}

	return certificate, nil
}

// RenderJob is the queue handler that renders and stores the certificate
// PDF, then flips the request to ready.
func (s *CertificateService) RenderJob(ctx context.Context, job jobs.Job) error {
	certificateID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected certificate job payload %T", job.Payload)
	}

	certificate, err := s.repo.FindCertificateByID(ctx, certificateID)
	if err != nil {
		return fmt.Errorf("load certificate %s: %w", certificateID, err)
	}

	data, err := s.renderer.RenderCertificate(export.CertificateDocument{
		CertificateNumber: certificate.CertificateNumber,
		VerificationCode:  certificate.VerificationCode,
		StudentName:       certificate.StudentName,
		ProgramName:       certificate.ProgramName,
		CertificateType:   certificate.CertificateType,
		IssuedAt:          certificate.IssuedAt,
	})
	if err != nil {
		return fmt.Errorf("render certificate %s: %w", certificate.CertificateNumber, err)
	}

	relPath := fmt.Sprintf("certificates/%s.pdf", certificate.CertificateNumber)
	if _, err := s.store.Save(relPath, data); err != nil {
		return fmt.Errorf("store certificate %s: %w", certificate.CertificateNumber, err)
	}

	if err := s.repo.UpdateCertificatePDFPath(ctx, certificate.ID, relPath); err != nil {
		return fmt.Errorf("record certificate pdf path: %w", err)
	}

	if _, err := s.repo.UpdateRequestStatus(ctx, certificate.RequestID,
		models.CertificateRequestProcessing, models.CertificateRequestReady, nil, nil); err != nil {
		return fmt.Errorf("mark request ready: %w", err)
	}

	s.logger.Info("certificate rendered",
		zap.String("certificate_number", certificate.CertificateNumber),
		zap.String("pdf_path", relPath))
	return nil
}

// Verify looks a certificate up by its verification code. Unknown codes
// yield an invalid result, not an error.
func (s *CertificateService) Verify(ctx context.Context, code string) (*models.CertificateVerification, error) {
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "verification code is required")
	}
	certificate, err := s.repo.FindCertificateByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.CertificateVerification{Valid: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify certificate")
	}
	return &models.CertificateVerification{Valid: true, Certificate: certificate}, nil
}

// DownloadToken issues a signed, expiring token for fetching the rendered
// PDF of a ready request.
func (s *CertificateService) DownloadToken(ctx context.Context, requestID string) (string, time.Time, error) {
	certificate, err := s.repo.FindCertificateByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if certificate.PDFPath == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrPreconditionFailed, "certificate pdf is not ready")
	}
	token, expiresAt, err := s.signer.Generate(certificate.ID, *certificate.PDFPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return token, expiresAt, nil
}

// ResolveDownload validates a signed token and returns the stored PDF path.
func (s *CertificateService) ResolveDownload(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	return relPath, nil
}

func newVerificationCode() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
