package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type mockDashboardRepo struct {
	failBorrowings bool
	calls          int
}

func (m *mockDashboardRepo) CountStudents(ctx context.Context) (int, int, error) {
	m.calls++
	return 1200, 1100, nil
}

func (m *mockDashboardRepo) CountPendingAdmissions(ctx context.Context) (int, error) {
	m.calls++
	return 45, nil
}

func (m *mockDashboardRepo) CountEmployees(ctx context.Context) (int, error) {
	m.calls++
	return 80, nil
}

func (m *mockDashboardRepo) CountBorrowings(ctx context.Context, asOf time.Time) (int, int, error) {
	m.calls++
	if m.failBorrowings {
		return 0, 0, errors.New("borrowings unavailable")
	}
	return 60, 7, nil
}

func (m *mockDashboardRepo) CountPendingCertificates(ctx context.Context) (int, error) {
	m.calls++
	return 12, nil
}

func (m *mockDashboardRepo) CountPendingTransfers(ctx context.Context) (int, error) {
	m.calls++
	return 3, nil
}

func (m *mockDashboardRepo) CountPendingSalaryRuns(ctx context.Context) (int, error) {
	m.calls++
	return 5, nil
}

type mockFeeReader struct {
	sum float64
}

func (m *mockFeeReader) SumCollectedSince(ctx context.Context, since time.Time) (float64, error) {
	return m.sum, nil
}

type mapCacheRepo struct {
	entries map[string][]byte
}

func (m *mapCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mapCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mapCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = map[string][]byte{}
	return nil
}

func TestDashboardServiceSummary(t *testing.T) {
	repo := &mockDashboardRepo{}
	svc := NewDashboardService(DashboardServiceParams{
		Repo:    repo,
		Finance: &mockFeeReader{sum: 250000},
		Logger:  zap.NewNop(),
	})

	summary, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1200, summary.TotalStudents)
	assert.Equal(t, 1100, summary.ActiveStudents)
	assert.Equal(t, 45, summary.PendingAdmissions)
	assert.Equal(t, 80, summary.TotalEmployees)
	assert.Equal(t, 60, summary.BorrowedBooks)
	assert.Equal(t, 7, summary.OverdueBorrowings)
	assert.Equal(t, 12, summary.PendingCertificates)
	assert.Equal(t, 3, summary.PendingTransfers)
	assert.Equal(t, 5, summary.PendingSalaryRuns)
	assert.Equal(t, 250000.0, summary.FeesCollectedMonth)
}

func TestDashboardServiceSummaryUsesCache(t *testing.T) {
	repo := &mockDashboardRepo{}
	cache := NewCacheService(&mapCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(DashboardServiceParams{
		Repo:    repo,
		Finance: &mockFeeReader{sum: 250000},
		Cache:   cache,
		Logger:  zap.NewNop(),
	})

	first, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	callsAfterFirst := repo.calls

	second, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, repo.calls)
}

func TestDashboardServiceSummaryFailsClosed(t *testing.T) {
	repo := &mockDashboardRepo{failBorrowings: true}
	svc := NewDashboardService(DashboardServiceParams{
		Repo:    repo,
		Finance: &mockFeeReader{},
		Logger:  zap.NewNop(),
	})

	_, _, err := svc.Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestDashboardServiceInvalidate(t *testing.T) {
	cacheRepo := &mapCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(DashboardServiceParams{
		Repo:    &mockDashboardRepo{},
		Finance: &mockFeeReader{},
		Cache:   cache,
		Logger:  zap.NewNop(),
	})

	_, _, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, cacheRepo.entries)

	svc.Invalidate(context.Background())
	assert.Empty(t, cacheRepo.entries)
}
