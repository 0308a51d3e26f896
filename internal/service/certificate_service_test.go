package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
	"github.com/ahmad-watoo/ams-api/pkg/export"
	"github.com/ahmad-watoo/ams-api/pkg/jobs"
)

type mockCertificateRepo struct {
	requests     map[string]models.CertificateRequest
	certificates map[string]models.Certificate
	byCode       map[string]models.Certificate
	issued       *models.Certificate
	transitions  []string
	pdfPaths     map[string]string
}

func (m *mockCertificateRepo) ListRequests(ctx context.Context, filter models.CertificateRequestFilter) ([]models.CertificateRequest, int, error) {
	return nil, 0, nil
}

func (m *mockCertificateRepo) FindRequestByID(ctx context.Context, id string) (*models.CertificateRequest, error) {
	if r, ok := m.requests[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCertificateRepo) CreateRequest(ctx context.Context, request *models.CertificateRequest) error {
	if m.requests == nil {
		m.requests = make(map[string]models.CertificateRequest)
	}
	request.ID = "new-request"
	m.requests[request.ID] = *request
	return nil
}

func (m *mockCertificateRepo) UpdateRequestStatus(ctx context.Context, id string, from, to models.CertificateRequestStatus, rejectionReason *string, reviewedBy *string) (bool, error) {
	request, ok := m.requests[id]
	if !ok || request.Status != from {
		return false, nil
	}
	request.Status = to
	request.RejectionReason = rejectionReason
	if reviewedBy != nil {
		request.ReviewedBy = reviewedBy
	}
	m.requests[id] = request
	m.transitions = append(m.transitions, string(from)+">"+string(to))
	return true, nil
}

func (m *mockCertificateRepo) MarkFeePaid(ctx context.Context, id string) error {
	request := m.requests[id]
	request.FeePaid = true
	m.requests[id] = request
	return nil
}

func (m *mockCertificateRepo) CreateCertificate(ctx context.Context, certificate *models.Certificate) error {
	if m.certificates == nil {
		m.certificates = make(map[string]models.Certificate)
	}
	certificate.ID = "new-cert"
	certificate.CertificateNumber = "CERT-2026-00001"
	m.certificates[certificate.ID] = *certificate
	m.issued = certificate
	return nil
}

func (m *mockCertificateRepo) FindCertificateByID(ctx context.Context, id string) (*models.Certificate, error) {
	if c, ok := m.certificates[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCertificateRepo) FindCertificateByRequestID(ctx context.Context, requestID string) (*models.Certificate, error) {
	for _, c := range m.certificates {
		if c.RequestID == requestID {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCertificateRepo) FindCertificateByVerificationCode(ctx context.Context, code string) (*models.Certificate, error) {
	if c, ok := m.byCode[code]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCertificateRepo) UpdateCertificatePDFPath(ctx context.Context, id, pdfPath string) error {
	if m.pdfPaths == nil {
		m.pdfPaths = make(map[string]string)
	}
	m.pdfPaths[id] = pdfPath
	if c, ok := m.certificates[id]; ok {
		c.PDFPath = &pdfPath
		m.certificates[id] = c
	}
	return nil
}

type mockCertificateStudents struct {
	students map[string]*models.StudentDetail
}

func (m *mockCertificateStudents) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCertificateRenderer struct {
	rendered []export.CertificateDocument
}

func (m *mockCertificateRenderer) RenderCertificate(doc export.CertificateDocument) ([]byte, error) {
	m.rendered = append(m.rendered, doc)
	return []byte("%PDF-1.4"), nil
}

type mockCertificateStore struct {
	saved map[string][]byte
}

func (m *mockCertificateStore) Save(filename string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	return "/storage/" + filename, nil
}

type mockCertificateSigner struct{}

func (m *mockCertificateSigner) Generate(docID, relPath string) (string, time.Time, error) {
	return "signed-token", time.Now().Add(15 * time.Minute), nil
}

func (m *mockCertificateSigner) Parse(token string, allowExpired bool) (string, string, time.Time, error) {
	if token != "signed-token" {
		return "", "", time.Time{}, appErrors.Clone(appErrors.ErrUnauthorized, "bad token")
	}
	return "new-cert", "certificates/CERT-2026-00001.pdf", time.Now().Add(time.Minute), nil
}

type mockQueue struct {
	jobs []jobs.Job
}

func (m *mockQueue) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

func certificateFixture() (*CertificateService, *mockCertificateRepo, *mockQueue, *mockCertificateRenderer, *mockCertificateStore) {
	repo := &mockCertificateRepo{requests: map[string]models.CertificateRequest{}}
	program := "BS Computer Science"
	students := &mockCertificateStudents{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", FullName: "Ayesha Khan"}, ProgramName: &program},
	}}
	renderer := &mockCertificateRenderer{}
	store := &mockCertificateStore{}
	queue := &mockQueue{}
	svc := NewCertificateService(repo, students, renderer, store, &mockCertificateSigner{}, queue, validator.New(), zap.NewNop())
	return svc, repo, queue, renderer, store
}

func TestCertificateServiceRequest(t *testing.T) {
	svc, repo, _, _, _ := certificateFixture()

	request, err := svc.Request(context.Background(), RequestCertificateRequest{StudentID: "s1", CertificateType: "degree"})
	require.NoError(t, err)
	assert.Equal(t, models.CertificateRequestPending, request.Status)
	assert.False(t, request.FeePaid)
	assert.Contains(t, repo.requests, "new-request")
}

func TestCertificateServiceRequestUnknownType(t *testing.T) {
	svc, _, _, _, _ := certificateFixture()

	_, err := svc.Request(context.Background(), RequestCertificateRequest{StudentID: "s1", CertificateType: "diploma"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceReviewApprove(t *testing.T) {
	svc, repo, _, _, _ := certificateFixture()
	repo.requests["r1"] = models.CertificateRequest{ID: "r1", Status: models.CertificateRequestPending}

	request, err := svc.Review(context.Background(), "r1", "registrar", ReviewCertificateRequest{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, models.CertificateRequestApproved, request.Status)
	require.NotNil(t, request.ReviewedBy)
	assert.Equal(t, "registrar", *request.ReviewedBy)
}

func TestCertificateServiceReviewRejectNeedsReason(t *testing.T) {
	svc, repo, _, _, _ := certificateFixture()
	repo.requests["r1"] = models.CertificateRequest{ID: "r1", Status: models.CertificateRequestPending}

	_, err := svc.Review(context.Background(), "r1", "registrar", ReviewCertificateRequest{Approve: false})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceReviewNonPendingRejected(t *testing.T) {
	svc, repo, _, _, _ := certificateFixture()
	repo.requests["r1"] = models.CertificateRequest{ID: "r1", Status: models.CertificateRequestApproved}

	_, err := svc.Review(context.Background(), "r1", "registrar", ReviewCertificateRequest{Approve: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceMarkFeePaidOnRejected(t *testing.T) {
	svc, repo, _, _, _ := certificateFixture()
	repo.requests["r1"] = models.CertificateRequest{ID: "r1", Status: models.CertificateRequestRejected}

	_, err := svc.MarkFeePaid(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceProcess(t *testing.T) {
	svc, repo, queue, _, _ := certificateFixture()
	repo.requests["r1"] = models.CertificateRequest{ID: "r1", StudentID: "s1", CertificateType: "degree", Status: models.CertificateRequestApproved, FeePaid: true}

	certificate, err := svc.Process(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "CERT-2026-00001", certificate.CertificateNumber)
	assert.Len(t, certificate.VerificationCode, 16)
	assert.Equal(t, "Ayesha Khan", certificate.StudentName)
	assert.Equal(t, models.CertificateRequestProcessing, repo.requests["r1"].Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, CertificateJobType, queue.jobs[0].Type)
	assert.Equal(t, "new-cert", queue.jobs[0].Payload)
}

func TestCertificateServiceProcessGates(t *testing.T) {
	svc, repo, _, _, _ := certificateFixture()
	repo.requests["pending"] = models.CertificateRequest{ID: "pending", StudentID: "s1", Status: models.CertificateRequestPending, FeePaid: true}
	repo.requests["unpaid"] = models.CertificateRequest{ID: "unpaid", StudentID: "s1", Status: models.CertificateRequestApproved, FeePaid: false}

	_, err := svc.Process(context.Background(), "pending")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.Process(context.Background(), "unpaid")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCertificateServiceRenderJob(t *testing.T) {
	svc, repo, queue, renderer, store := certificateFixture()
	repo.requests["r1"] = models.CertificateRequest{ID: "r1", StudentID: "s1", CertificateType: "degree", Status: models.CertificateRequestApproved, FeePaid: true}

	certificate, err := svc.Process(context.Background(), "r1")
	require.NoError(t, err)

	require.NoError(t, svc.RenderJob(context.Background(), queue.jobs[0]))
	assert.Len(t, renderer.rendered, 1)
	assert.Contains(t, store.saved, "certificates/CERT-2026-00001.pdf")
	assert.Equal(t, "certificates/CERT-2026-00001.pdf", repo.pdfPaths[certificate.ID])
	assert.Equal(t, models.CertificateRequestReady, repo.requests["r1"].Status)
}

func TestCertificateServiceVerify(t *testing.T) {
	svc, repo, _, _, _ := certificateFixture()
	repo.byCode = map[string]models.Certificate{
		"abcd1234": {ID: "c1", CertificateNumber: "CERT-2026-00001", VerificationCode: "abcd1234"},
	}

	result, err := svc.Verify(context.Background(), "abcd1234")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.NotNil(t, result.Certificate)
	assert.Equal(t, "CERT-2026-00001", result.Certificate.CertificateNumber)
}

func TestCertificateServiceVerifyUnknownCode(t *testing.T) {
	svc, _, _, _, _ := certificateFixture()

	result, err := svc.Verify(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Nil(t, result.Certificate)
}

func TestCertificateServiceDownloadTokenRequiresPDF(t *testing.T) {
	svc, repo, _, _, _ := certificateFixture()
	repo.certificates = map[string]models.Certificate{
		"c1": {ID: "c1", RequestID: "r1"},
	}

	_, _, err := svc.DownloadToken(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	path := "certificates/CERT-2026-00001.pdf"
	repo.certificates["c1"] = models.Certificate{ID: "c1", RequestID: "r1", PDFPath: &path}
	token, expiresAt, err := svc.DownloadToken(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
	assert.True(t, expiresAt.After(time.Now()))
}

func TestCertificateServiceResolveDownload(t *testing.T) {
	svc, _, _, _, _ := certificateFixture()

	path, err := svc.ResolveDownload("signed-token")
	require.NoError(t, err)
	assert.Equal(t, "certificates/CERT-2026-00001.pdf", path)

	_, err = svc.ResolveDownload("forged")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
