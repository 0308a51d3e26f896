package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ahmad-watoo/ams-api/internal/models"
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type dashboardRepository interface {
	CountStudents(ctx context.Context) (total, active int, err error)
	CountPendingAdmissions(ctx context.Context) (int, error)
	CountEmployees(ctx context.Context) (int, error)
	CountBorrowings(ctx context.Context, asOf time.Time) (borrowed, overdue int, err error)
	CountPendingCertificates(ctx context.Context) (int, error)
	CountPendingTransfers(ctx context.Context) (int, error)
	CountPendingSalaryRuns(ctx context.Context) (int, error)
}

type feeCollectionReader interface {
	SumCollectedSince(ctx context.Context, since time.Time) (float64, error)
}

const dashboardSummaryCacheKey = "dash:summary"

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Repo     dashboardRepository
	Finance  feeCollectionReader
	Cache    *CacheService
	Metrics  *MetricsService
	Logger   *zap.Logger
	CacheTTL time.Duration
}

// DashboardService composes the admin dashboard from every module's counters.
type DashboardService struct {
	repo     dashboardRepository
	finance  feeCollectionReader
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:     params.Repo,
		finance:  params.Finance,
		cache:    params.Cache,
		metrics:  params.Metrics,
		logger:   logger,
		cacheTTL: ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Summary returns the aggregated dashboard counters and indicates cache
// utilisation. The counts load in parallel; any failing read fails the whole
// summary rather than serving partial numbers.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	if s.cache != nil {
		var cached models.DashboardSummary
		hit, err := s.cache.Get(ctx, dashboardSummaryCacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	summary, err := s.composeSummary(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardSummaryCacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

// Invalidate drops the cached summary after a mutation elsewhere.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardSummaryCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.Error(err))
	}
}

// System returns a snapshot of runtime health counters.
func (s *DashboardService) System() models.SystemMetrics {
	return s.metrics.Snapshot()
}

func (s *DashboardService) composeSummary(ctx context.Context) (*models.DashboardSummary, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	summary := &models.DashboardSummary{}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(load func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := load(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	run(func() error {
		total, active, err := s.repo.CountStudents(ctx)
		if err != nil {
			return err
		}
		summary.TotalStudents = total
		summary.ActiveStudents = active
		return nil
	})
	run(func() error {
		count, err := s.repo.CountPendingAdmissions(ctx)
		if err != nil {
			return err
		}
		summary.PendingAdmissions = count
		return nil
	})
	run(func() error {
		count, err := s.repo.CountEmployees(ctx)
		if err != nil {
			return err
		}
		summary.TotalEmployees = count
		return nil
	})
	run(func() error {
		borrowed, overdue, err := s.repo.CountBorrowings(ctx, now)
		if err != nil {
			return err
		}
		summary.BorrowedBooks = borrowed
		summary.OverdueBorrowings = overdue
		return nil
	})
	run(func() error {
		count, err := s.repo.CountPendingCertificates(ctx)
		if err != nil {
			return err
		}
		summary.PendingCertificates = count
		return nil
	})
	run(func() error {
		count, err := s.repo.CountPendingTransfers(ctx)
		if err != nil {
			return err
		}
		summary.PendingTransfers = count
		return nil
	})
	run(func() error {
		count, err := s.repo.CountPendingSalaryRuns(ctx)
		if err != nil {
			return err
		}
		summary.PendingSalaryRuns = count
		return nil
	})
	run(func() error {
		collected, err := s.finance.SumCollectedSince(ctx, monthStart)
		if err != nil {
			return err
		}
		summary.FeesCollectedMonth = collected
		return nil
	})

	wg.Wait()
	if len(errs) > 0 {
		return nil, appErrors.Wrap(errs[0], appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compose dashboard summary")
	}
	return summary, nil
}
