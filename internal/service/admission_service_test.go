package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type mockAdmissionRepo struct {
	applications map[string]models.AdmissionApplication
	created      *models.AdmissionApplication
	collisions   int
	existsChecks int
	statusCalls  []models.ApplicationStatus
}

func (m *mockAdmissionRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.AdmissionApplication, int, error) {
	return nil, 0, nil
}

func (m *mockAdmissionRepo) FindByID(ctx context.Context, id string) (*models.AdmissionApplication, error) {
	if a, ok := m.applications[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdmissionRepo) ExistsByApplicationNo(ctx context.Context, applicationNo string) (bool, error) {
	m.existsChecks++
	if m.collisions > 0 {
		m.collisions--
		return true, nil
	}
	return false, nil
}

func (m *mockAdmissionRepo) Create(ctx context.Context, application *models.AdmissionApplication) error {
	application.ID = "new-application"
	m.created = application
	return nil
}

func (m *mockAdmissionRepo) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus, remarks *string, reviewedBy string, reviewedAt time.Time) error {
	m.statusCalls = append(m.statusCalls, status)
	return nil
}

func (m *mockAdmissionRepo) MeritList(ctx context.Context, programID, batch string, limit int) ([]models.MeritEntry, error) {
	return []models.MeritEntry{{ApplicationNo: "APP-2026-00001", MeritScore: 91}}, nil
}

func newAdmissionService(repo *mockAdmissionRepo) *AdmissionService {
	return NewAdmissionService(repo, validator.New(), zap.NewNop())
}

func TestAdmissionServiceCreate(t *testing.T) {
	repo := &mockAdmissionRepo{}
	svc := newAdmissionService(repo)

	application, err := svc.Create(context.Background(), CreateApplicationRequest{
		FullName:   "Bilal Ahmed",
		Email:      "bilal@example.com",
		ProgramID:  "p1",
		CampusID:   "c1",
		Batch:      "2026",
		PriorScore: 80,
		TestScore:  90,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, application.Status)
	assert.Equal(t, 85.0, application.MeritScore)
	assert.True(t, strings.HasPrefix(application.ApplicationNo, "APP-"))
	assert.Equal(t, 1, repo.existsChecks)
}

func TestAdmissionServiceCreateRetriesOnCollision(t *testing.T) {
	repo := &mockAdmissionRepo{collisions: 2}
	svc := newAdmissionService(repo)

	_, err := svc.Create(context.Background(), CreateApplicationRequest{
		FullName:  "Bilal Ahmed",
		Email:     "bilal@example.com",
		ProgramID: "p1",
		CampusID:  "c1",
		Batch:     "2026",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.existsChecks)
}

func TestAdmissionServiceCreateExhaustsAttempts(t *testing.T) {
	repo := &mockAdmissionRepo{collisions: applicationNoAttempts}
	svc := newAdmissionService(repo)

	_, err := svc.Create(context.Background(), CreateApplicationRequest{
		FullName:  "Bilal Ahmed",
		Email:     "bilal@example.com",
		ProgramID: "p1",
		CampusID:  "c1",
		Batch:     "2026",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestAdmissionServiceReview(t *testing.T) {
	repo := &mockAdmissionRepo{applications: map[string]models.AdmissionApplication{
		"a1": {ID: "a1", Status: models.ApplicationStatusPending},
	}}
	svc := newAdmissionService(repo)

	application, err := svc.Review(context.Background(), "a1", "officer", ReviewApplicationRequest{Status: models.ApplicationStatusUnderReview})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusUnderReview, application.Status)
	require.NotNil(t, application.ReviewedBy)
	assert.Equal(t, "officer", *application.ReviewedBy)
}

func TestAdmissionServiceReviewBlocksBackwardTransition(t *testing.T) {
	repo := &mockAdmissionRepo{applications: map[string]models.AdmissionApplication{
		"a1": {ID: "a1", Status: models.ApplicationStatusApproved},
	}}
	svc := newAdmissionService(repo)

	_, err := svc.Review(context.Background(), "a1", "officer", ReviewApplicationRequest{Status: models.ApplicationStatusUnderReview})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statusCalls)
}

func TestAdmissionServiceMeritListValidation(t *testing.T) {
	svc := newAdmissionService(&mockAdmissionRepo{})

	_, err := svc.MeritList(context.Background(), "", "2026", 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	entries, err := svc.MeritList(context.Background(), "p1", "2026", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
