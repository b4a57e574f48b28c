package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/cache"
	"github.com/smallbiznis/atelier/internal/clock"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	"github.com/smallbiznis/atelier/internal/config"
	obsmetrics "github.com/smallbiznis/atelier/internal/observability/metrics"
	"github.com/smallbiznis/atelier/internal/orgcontext"
	dashboarddomain "github.com/smallbiznis/atelier/internal/productiondashboard/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	computeTimeout   = 30 * time.Second
	computeLockTTL   = 10 * time.Second
	lockWaitAttempts = 5
	lockWaitInterval = 100 * time.Millisecond
)

type Params struct {
	fx.In

	Log              *zap.Logger
	Source           dashboarddomain.ReferenceSource
	Clock            clock.Clock
	Config           *config.DashboardConfigHolder
	Cache            cache.MetricsCache
	Lock             *cache.ComputeLock           `optional:"true"`
	Metrics          *obsmetrics.Metrics          `optional:"true"`
	DashboardMetrics *obsmetrics.DashboardMetrics `optional:"true"`
}

type Service struct {
	log              *zap.Logger
	source           dashboarddomain.ReferenceSource
	clock            clock.Clock
	config           *config.DashboardConfigHolder
	cache            cache.MetricsCache
	lock             *cache.ComputeLock
	metrics          *obsmetrics.Metrics
	dashboardMetrics *obsmetrics.DashboardMetrics
	group            singleflight.Group
}

func New(p Params) dashboarddomain.Service {
	return NewService(p)
}

func NewService(p Params) *Service {
	holder := p.Config
	if holder == nil {
		holder = config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig())
	}
	metricsCache := p.Cache
	if metricsCache == nil {
		metricsCache = cache.NewMetricsCache(nil)
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		log:              p.Log.Named("productiondashboard.service"),
		source:           p.Source,
		clock:            clk,
		config:           holder,
		cache:            metricsCache,
		lock:             p.Lock,
		metrics:          p.Metrics,
		dashboardMetrics: p.DashboardMetrics,
	}
}

// GetMetrics computes the dashboard for the organization in ctx as of today in
// the configured timezone.
func (s *Service) GetMetrics(ctx context.Context) (*closingperiod.Metrics, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, dashboarddomain.ErrInvalidOrganization
	}

	cfg := s.config.Get()
	asOf := s.clock.Now().In(cfg.Location())
	day := asOf.Format("2006-01-02")

	snap := s.snapshot(ctx, orgID)
	if cached, hit := s.lookup(ctx, orgID, snap, day); hit {
		return cached, nil
	}

	// Concurrent requests for the same org, data version and day share one
	// computation. It runs detached from any single caller so one client
	// going away does not fail the others.
	key := fmt.Sprintf("%s:%d:%s", orgID, snap.version, day)
	results := s.group.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		return s.computeLocked(shared, orgID, snap, day, asOf, cfg)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*closingperiod.Metrics), nil
	}
}

// InvalidateCache drops cached metrics after a write to the organization's data.
func (s *Service) InvalidateCache(ctx context.Context, orgID snowflake.ID) error {
	if orgID == 0 {
		return dashboarddomain.ErrInvalidOrganization
	}
	if err := s.cache.Invalidate(ctx, orgID); err != nil {
		s.log.Warn("failed to invalidate dashboard cache", zap.String("org_id", orgID.String()), zap.Error(err))
		return err
	}
	return nil
}

// cacheSnapshot is the organization's cache version, read before references
// are loaded. ok is false when the cache is disabled or unreadable.
type cacheSnapshot struct {
	version int64
	ok      bool
}

func (s *Service) snapshot(ctx context.Context, orgID snowflake.ID) cacheSnapshot {
	if !s.cache.Enabled() {
		return cacheSnapshot{}
	}
	version, err := s.cache.Version(ctx, orgID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Warn("dashboard cache version lookup failed", zap.String("org_id", orgID.String()), zap.Error(err))
		}
		s.recordCache(ctx, "error")
		return cacheSnapshot{}
	}
	return cacheSnapshot{version: version, ok: true}
}

func (s *Service) computeLocked(ctx context.Context, orgID snowflake.ID, snap cacheSnapshot, day string, asOf time.Time, cfg config.DashboardConfig) (*closingperiod.Metrics, error) {
	if s.lock == nil || !snap.ok {
		return s.compute(ctx, orgID, snap, day, asOf, cfg)
	}

	token, acquired, err := s.lock.TryLock(ctx, orgID, computeLockTTL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Warn("compute lock unavailable", zap.String("org_id", orgID.String()), zap.Error(err))
		return s.compute(ctx, orgID, snap, day, asOf, cfg)
	}
	if acquired {
		defer func() {
			if releaseErr := s.lock.Release(context.WithoutCancel(ctx), orgID, token); releaseErr != nil {
				s.log.Warn("failed to release compute lock", zap.String("org_id", orgID.String()), zap.Error(releaseErr))
			}
		}()
		return s.compute(ctx, orgID, snap, day, asOf, cfg)
	}

	// Another replica is computing; wait briefly for its result.
	for attempt := 0; attempt < lockWaitAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockWaitInterval):
		}
		if cached, hit := s.lookup(ctx, orgID, snap, day); hit {
			return cached, nil
		}
	}
	return s.compute(ctx, orgID, snap, day, asOf, cfg)
}

func (s *Service) compute(ctx context.Context, orgID snowflake.ID, snap cacheSnapshot, day string, asOf time.Time, cfg config.DashboardConfig) (*closingperiod.Metrics, error) {
	start := time.Now()

	refs, err := s.source.ListForDashboard(ctx, orgID)
	if err != nil {
		s.dashboardMetrics.IncFetchError(err)
		s.metrics.RecordDashboardComputation(ctx, orgID.String(), "fetch_error")
		s.log.Error("failed to load references",
			zap.String("org_id", orgID.String()),
			zap.String("reason", obsmetrics.ClassifyFetchError(err)),
			zap.Error(err),
		)
		return nil, &dashboarddomain.UpstreamFetchError{Err: err}
	}

	engine := closingperiod.NewEngine(cfg.EngineOptions())
	result := engine.Compute(refs, asOf)

	valueInProduction, _ := result.ValueInProduction.Float64()
	s.dashboardMetrics.ObserveComputation(time.Since(start), len(refs), valueInProduction)
	s.metrics.RecordDashboardComputation(ctx, orgID.String(), "ok")
	s.log.Debug("dashboard metrics computed",
		zap.String("org_id", orgID.String()),
		zap.String("as_of", day),
		zap.Int("references", len(refs)),
		zap.Duration("duration", time.Since(start)),
	)

	if snap.ok && cfg.CacheTTL > 0 {
		if err := s.cache.Set(ctx, orgID, snap.version, day, &result, cfg.CacheTTL); err != nil {
			s.log.Warn("failed to cache dashboard metrics", zap.String("org_id", orgID.String()), zap.Error(err))
		}
	}
	return &result, nil
}

func (s *Service) lookup(ctx context.Context, orgID snowflake.ID, snap cacheSnapshot, day string) (*closingperiod.Metrics, bool) {
	if !snap.ok {
		return nil, false
	}
	cached, hit, err := s.cache.Get(ctx, orgID, snap.version, day)
	switch {
	case err != nil:
		if !errors.Is(err, context.Canceled) {
			s.log.Warn("dashboard cache lookup failed", zap.String("org_id", orgID.String()), zap.Error(err))
		}
		s.recordCache(ctx, "error")
		return nil, false
	case hit:
		s.recordCache(ctx, "hit")
		return cached, true
	default:
		s.recordCache(ctx, "miss")
		return nil, false
	}
}

func (s *Service) recordCache(ctx context.Context, result string) {
	s.metrics.RecordDashboardCache(ctx, result)
	s.dashboardMetrics.IncCacheResult(result)
}
