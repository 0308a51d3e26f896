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
)

type mockTransferRepo struct {
	transfers map[string]models.TransferRequest
	open      map[string]bool
	created   *models.TransferRequest
	completed []string
}

func (m *mockTransferRepo) List(ctx context.Context, filter models.TransferFilter) ([]models.TransferRequest, int, error) {
	return nil, 0, nil
}

func (m *mockTransferRepo) FindByID(ctx context.Context, id string) (*models.TransferRequest, error) {
	if tr, ok := m.transfers[id]; ok {
		return &tr, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTransferRepo) HasOpenRequest(ctx context.Context, studentID string) (bool, error) {
	return m.open[studentID], nil
}

func (m *mockTransferRepo) Create(ctx context.Context, transfer *models.TransferRequest) error {
	if m.transfers == nil {
		m.transfers = make(map[string]models.TransferRequest)
	}
	transfer.ID = "new-transfer"
	m.transfers[transfer.ID] = *transfer
	m.created = transfer
	return nil
}

func (m *mockTransferRepo) Review(ctx context.Context, id string, status models.TransferStatus, reviewedBy string, reviewedAt time.Time) (bool, error) {
	tr, ok := m.transfers[id]
	if !ok || tr.Status != models.TransferStatusPending {
		return false, nil
	}
	tr.Status = status
	tr.ReviewedBy = &reviewedBy
	tr.ReviewedAt = &reviewedAt
	m.transfers[id] = tr
	return true, nil
}

func (m *mockTransferRepo) Complete(ctx context.Context, id string, completedAt time.Time) (bool, error) {
	tr, ok := m.transfers[id]
	if !ok || tr.Status != models.TransferStatusApproved {
		return false, nil
	}
	tr.Status = models.TransferStatusCompleted
	tr.CompletedAt = &completedAt
	m.transfers[id] = tr
	m.completed = append(m.completed, id)
	return true, nil
}

type mockTransferStudents struct {
	students map[string]*models.StudentDetail
}

func (m *mockTransferStudents) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func newTransferService(repo *mockTransferRepo) *TransferService {
	students := &mockTransferStudents{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", CampusID: "main"}},
	}}
	return NewTransferService(repo, students, validator.New(), zap.NewNop())
}

func TestTransferServiceRequest(t *testing.T) {
	repo := &mockTransferRepo{}
	svc := newTransferService(repo)

	transfer, err := svc.Request(context.Background(), CreateTransferRequest{StudentID: "s1", ToCampusID: "city", Reason: "relocation"})
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusPending, transfer.Status)
	assert.Equal(t, "main", transfer.FromCampusID)
	assert.Equal(t, "city", transfer.ToCampusID)
}

func TestTransferServiceRequestSameCampusRejected(t *testing.T) {
	svc := newTransferService(&mockTransferRepo{})

	_, err := svc.Request(context.Background(), CreateTransferRequest{StudentID: "s1", ToCampusID: "main", Reason: "whim"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTransferServiceRequestOpenConflict(t *testing.T) {
	repo := &mockTransferRepo{open: map[string]bool{"s1": true}}
	svc := newTransferService(repo)

	_, err := svc.Request(context.Background(), CreateTransferRequest{StudentID: "s1", ToCampusID: "city", Reason: "relocation"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTransferServiceReview(t *testing.T) {
	repo := &mockTransferRepo{transfers: map[string]models.TransferRequest{
		"t1": {ID: "t1", StudentID: "s1", Status: models.TransferStatusPending},
	}}
	svc := newTransferService(repo)

	transfer, err := svc.Review(context.Background(), "t1", "registrar", ReviewTransferRequest{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusApproved, transfer.Status)
	require.NotNil(t, transfer.ReviewedBy)
	assert.Equal(t, "registrar", *transfer.ReviewedBy)
}

func TestTransferServiceReviewNonPending(t *testing.T) {
	repo := &mockTransferRepo{transfers: map[string]models.TransferRequest{
		"t1": {ID: "t1", Status: models.TransferStatusCompleted},
	}}
	svc := newTransferService(repo)

	_, err := svc.Review(context.Background(), "t1", "registrar", ReviewTransferRequest{Approve: false})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestTransferServiceComplete(t *testing.T) {
	repo := &mockTransferRepo{transfers: map[string]models.TransferRequest{
		"t1": {ID: "t1", Status: models.TransferStatusApproved},
	}}
	svc := newTransferService(repo)

	transfer, err := svc.Complete(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusCompleted, transfer.Status)
	assert.Contains(t, repo.completed, "t1")
}

func TestTransferServiceCompleteRequiresApproval(t *testing.T) {
	repo := &mockTransferRepo{transfers: map[string]models.TransferRequest{
		"t1": {ID: "t1", Status: models.TransferStatusPending},
	}}
	svc := newTransferService(repo)

	_, err := svc.Complete(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
