package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/ahmad-watoo/ams-api/internal/models"
	"github.com/ahmad-watoo/ams-api/internal/service"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
	"github.com/ahmad-watoo/ams-api/pkg/response"
	"github.com/ahmad-watoo/ams-api/pkg/storage"
)

// CertificateHandler exposes certificate issuance and verification endpoints.
type CertificateHandler struct {
	certificates *service.CertificateService
	files        *storage.LocalStorage
}

// NewCertificateHandler constructs CertificateHandler.
func NewCertificateHandler(certificates *service.CertificateService, files *storage.LocalStorage) *CertificateHandler {
	return &CertificateHandler{certificates: certificates, files: files}
}

// ListRequests godoc
// @Summary List certificate requests
// @Tags Certificates
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /certificates/requests [get]
func (h *CertificateHandler) ListRequests(c *gin.Context) {
	var filter models.CertificateRequestFilter
	filter.StudentID = c.Query("studentId")
	filter.Status = c.Query("status")
	filter.Page, filter.PageSize = pageParams(c)

	requests, pagination, err := h.certificates.ListRequests(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// GetRequest godoc
// @Summary Get certificate request
// @Tags Certificates
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/requests/{id} [get]
func (h *CertificateHandler) GetRequest(c *gin.Context) {
	request, err := h.certificates.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Request godoc
// @Summary Request a certificate
// @Tags Certificates
// @Accept json
// @Produce json
// @Param payload body service.RequestCertificateRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /certificates/requests [post]
func (h *CertificateHandler) Request(c *gin.Context) {
	var req service.RequestCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.certificates.Request(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Review godoc
// @Summary Approve or reject a certificate request
// @Tags Certificates
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.ReviewCertificateRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /certificates/requests/{id}/review [post]
func (h *CertificateHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ReviewCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.certificates.Review(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// MarkFeePaid godoc
// @Summary Record certificate fee payment
// @Tags Certificates
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /certificates/requests/{id}/fee [post]
func (h *CertificateHandler) MarkFeePaid(c *gin.Context) {
	request, err := h.certificates.MarkFeePaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Process godoc
// @Summary Issue a certificate for an approved, paid request
// @Tags Certificates
// @Produce json
// @Param id path string true "Request ID"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /certificates/requests/{id}/process [post]
func (h *CertificateHandler) Process(c *gin.Context) {
	certificate, err := h.certificates.Process(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, certificate)
}

// Verify godoc
// @Summary Verify a certificate by its public code
// @Tags Certificates
// @Produce json
// @Param code path string true "Verification code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/verify/{code} [get]
func (h *CertificateHandler) Verify(c *gin.Context) {
	verification, err := h.certificates.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	// An unknown code is not an error, but there is no certificate behind it.
	status := http.StatusOK
	if !verification.Valid {
		status = http.StatusNotFound
	}
	response.JSON(c, status, verification, nil)
}

// DownloadToken godoc
// @Summary Mint a short-lived download link for a rendered certificate
// @Tags Certificates
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /certificates/requests/{id}/download-token [post]
func (h *CertificateHandler) DownloadToken(c *gin.Context) {
	token, expiresAt, err := h.certificates.DownloadToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "expiresAt": expiresAt}, nil)
}

// Download godoc
// @Summary Download a rendered certificate PDF
// @Tags Certificates
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /certificates/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	relPath, err := h.certificates.ResolveDownload(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(h.files.PathFor(relPath), filepath.Base(relPath))
}
