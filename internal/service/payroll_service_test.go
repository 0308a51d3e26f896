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
	"github.com/ahmad-watoo/ams-api/internal/repository"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type mockPayrollRepo struct {
	active            map[string]*models.SalaryStructure
	processings       map[string]models.SalaryProcessing
	createdStructure  *models.SalaryStructure
	createdProcessing *models.SalaryProcessing
	duplicatePeriods  map[string]bool
	processed         []string
	approved          []string
	paid              []string
}

func (m *mockPayrollRepo) FindActiveStructure(ctx context.Context, employeeID string) (*models.SalaryStructure, error) {
	if s, ok := m.active[employeeID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPayrollRepo) ListStructures(ctx context.Context, employeeID string) ([]models.SalaryStructure, error) {
	return nil, nil
}

func (m *mockPayrollRepo) CreateStructure(ctx context.Context, structure *models.SalaryStructure) error {
	structure.ID = "new-structure"
	structure.IsActive = true
	m.createdStructure = structure
	return nil
}

func (m *mockPayrollRepo) CreateProcessing(ctx context.Context, processing *models.SalaryProcessing) error {
	if m.duplicatePeriods[processing.EmployeeID+processing.Period] {
		return repository.ErrDuplicateProcessing
	}
	processing.ID = "new-run"
	m.createdProcessing = processing
	return nil
}

func (m *mockPayrollRepo) FindProcessingByID(ctx context.Context, id string) (*models.SalaryProcessing, error) {
	if p, ok := m.processings[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPayrollRepo) ListProcessings(ctx context.Context, filter models.ProcessingFilter) ([]models.SalaryProcessing, int, error) {
	return nil, 0, nil
}

func (m *mockPayrollRepo) MarkProcessed(ctx context.Context, id string, processedAt time.Time) error {
	m.processed = append(m.processed, id)
	return nil
}

func (m *mockPayrollRepo) Approve(ctx context.Context, id, approvedBy string, approvedAt time.Time) error {
	m.approved = append(m.approved, id)
	return nil
}

func (m *mockPayrollRepo) MarkPaid(ctx context.Context, id, paidBy string, paidAt time.Time) error {
	m.paid = append(m.paid, id)
	return nil
}

func newPayrollService(repo *mockPayrollRepo) *PayrollService {
	return NewPayrollService(repo, validator.New(), zap.NewNop())
}

func TestPayrollServiceCreateStructureDerivesPay(t *testing.T) {
	repo := &mockPayrollRepo{}
	svc := newPayrollService(repo)

	structure, err := svc.CreateStructure(context.Background(), CreateStructureRequest{
		EmployeeID:     "e1",
		BasicSalary:    70000,
		HouseRentAllow: 20000,
		MedicalAllow:   10000,
		ProvidentFund:  5000,
		EffectiveFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 100000.0, structure.GrossSalary)
	// 1.2M annually is taxed 15000, so 1250 a month.
	assert.InDelta(t, 1250, structure.MonthlyTax, 0.001)
	assert.InDelta(t, 93750, structure.NetSalary, 0.001)
	assert.True(t, repo.createdStructure.IsActive)
}

func TestPayrollServiceProcessSalary(t *testing.T) {
	repo := &mockPayrollRepo{active: map[string]*models.SalaryStructure{
		"e1": {ID: "st1", EmployeeID: "e1", GrossSalary: 100000, NetSalary: 93750},
	}}
	svc := newPayrollService(repo)

	run, err := svc.ProcessSalary(context.Background(), "admin", ProcessSalaryRequest{
		EmployeeID:       "e1",
		Period:           "2026-03",
		DaysWorked:       22,
		Bonus:            5000,
		AdvanceDeduction: 2000,
	})
	require.NoError(t, err)
	// A fresh run starts pending and only MarkProcessed advances it.
	assert.Equal(t, models.ProcessingStatusPending, run.Status)
	assert.Equal(t, 105000.0, run.GrossSalary)
	assert.Equal(t, 96750.0, run.NetSalary)
	assert.Equal(t, "admin", run.ProcessedBy)
}

func TestPayrollServiceMarkProcessed(t *testing.T) {
	repo := &mockPayrollRepo{processings: map[string]models.SalaryProcessing{
		"r1": {ID: "r1", Status: models.ProcessingStatusPending},
	}}
	svc := newPayrollService(repo)

	run, err := svc.MarkProcessed(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusProcessed, run.Status)
	assert.Contains(t, repo.processed, "r1")
}

func TestPayrollServiceMarkProcessedRequiresPending(t *testing.T) {
	repo := &mockPayrollRepo{processings: map[string]models.SalaryProcessing{
		"r1": {ID: "r1", Status: models.ProcessingStatusApproved},
	}}
	svc := newPayrollService(repo)

	_, err := svc.MarkProcessed(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestPayrollServiceApprovePendingRunRejected(t *testing.T) {
	repo := &mockPayrollRepo{processings: map[string]models.SalaryProcessing{
		"r1": {ID: "r1", Status: models.ProcessingStatusPending},
	}}
	svc := newPayrollService(repo)

	_, err := svc.Approve(context.Background(), "r1", "director")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestPayrollServiceProcessSalaryDuplicatePeriod(t *testing.T) {
	repo := &mockPayrollRepo{
		active:           map[string]*models.SalaryStructure{"e1": {ID: "st1", EmployeeID: "e1", GrossSalary: 100000, NetSalary: 93750}},
		duplicatePeriods: map[string]bool{"e12026-03": true},
	}
	svc := newPayrollService(repo)

	_, err := svc.ProcessSalary(context.Background(), "admin", ProcessSalaryRequest{
		EmployeeID: "e1",
		Period:     "2026-03",
		DaysWorked: 22,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPayrollServiceProcessSalaryWithoutStructure(t *testing.T) {
	svc := newPayrollService(&mockPayrollRepo{})

	_, err := svc.ProcessSalary(context.Background(), "admin", ProcessSalaryRequest{
		EmployeeID: "e1",
		Period:     "2026-03",
		DaysWorked: 22,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPayrollServiceApprove(t *testing.T) {
	repo := &mockPayrollRepo{processings: map[string]models.SalaryProcessing{
		"r1": {ID: "r1", Status: models.ProcessingStatusProcessed},
	}}
	svc := newPayrollService(repo)

	run, err := svc.Approve(context.Background(), "r1", "director")
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusApproved, run.Status)
	assert.Contains(t, repo.approved, "r1")
}

func TestPayrollServiceApprovePaidRunRejected(t *testing.T) {
	repo := &mockPayrollRepo{processings: map[string]models.SalaryProcessing{
		"r1": {ID: "r1", Status: models.ProcessingStatusPaid},
	}}
	svc := newPayrollService(repo)

	_, err := svc.Approve(context.Background(), "r1", "director")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestPayrollServiceMarkPaidRequiresApproval(t *testing.T) {
	repo := &mockPayrollRepo{processings: map[string]models.SalaryProcessing{
		"r1": {ID: "r1", Status: models.ProcessingStatusProcessed},
		"r2": {ID: "r2", Status: models.ProcessingStatusApproved},
	}}
	svc := newPayrollService(repo)

	_, err := svc.MarkPaid(context.Background(), "r1", "finance")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	run, err := svc.MarkPaid(context.Background(), "r2", "finance")
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusPaid, run.Status)
	assert.Contains(t, repo.paid, "r2")
}
