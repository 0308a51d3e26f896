package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ahmad-watoo/ams-api/internal/models"
	"github.com/ahmad-watoo/ams-api/internal/service"
)

type stubCertificateRepo struct {
	certificates map[string]*models.Certificate
}

func (s stubCertificateRepo) ListRequests(context.Context, models.CertificateRequestFilter) ([]models.CertificateRequest, int, error) {
	return nil, 0, nil
}

func (s stubCertificateRepo) FindRequestByID(context.Context, string) (*models.CertificateRequest, error) {
	return nil, sql.ErrNoRows
}

func (s stubCertificateRepo) CreateRequest(context.Context, *models.CertificateRequest) error {
	return nil
}

func (s stubCertificateRepo) UpdateRequestStatus(context.Context, string, models.CertificateRequestStatus, models.CertificateRequestStatus, *string, *string) (bool, error) {
	return false, nil
}

func (s stubCertificateRepo) MarkFeePaid(context.Context, string) error { return nil }

func (s stubCertificateRepo) CreateCertificate(context.Context, *models.Certificate) error {
	return nil
}

func (s stubCertificateRepo) FindCertificateByID(context.Context, string) (*models.Certificate, error) {
	return nil, sql.ErrNoRows
}

func (s stubCertificateRepo) FindCertificateByRequestID(context.Context, string) (*models.Certificate, error) {
	return nil, sql.ErrNoRows
}

func (s stubCertificateRepo) FindCertificateByVerificationCode(ctx context.Context, code string) (*models.Certificate, error) {
	if certificate, ok := s.certificates[code]; ok {
		return certificate, nil
	}
	return nil, sql.ErrNoRows
}

func (s stubCertificateRepo) UpdateCertificatePDFPath(context.Context, string, string) error {
	return nil
}

func newCertificateVerifyContext(t *testing.T, code string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/certificates/verify/"+code, nil)
	c.Params = gin.Params{{Key: "code", Value: code}}
	return c, rec
}

func TestCertificateHandlerVerifyKnownCode(t *testing.T) {
	repo := stubCertificateRepo{certificates: map[string]*models.Certificate{
		"ab12cd34": {ID: "cert-1", CertificateNumber: "CERT-2026-0001", VerificationCode: "ab12cd34"},
	}}
	svc := service.NewCertificateService(repo, nil, nil, nil, nil, nil, nil, nil)
	handler := NewCertificateHandler(svc, nil)

	c, rec := newCertificateVerifyContext(t, "ab12cd34")
	handler.Verify(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Data["valid"])
}

func TestCertificateHandlerVerifyUnknownCodeIs404(t *testing.T) {
	svc := service.NewCertificateService(stubCertificateRepo{}, nil, nil, nil, nil, nil, nil, nil)
	handler := NewCertificateHandler(svc, nil)

	c, rec := newCertificateVerifyContext(t, "nope0000")
	handler.Verify(c)

	// The lookup is not an error, but the resource does not exist.
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, false, envelope.Data["valid"])
}
