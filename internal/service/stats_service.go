package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/talent-pool-api/internal/models"
)

type statsStore interface {
	AssignmentCounts(ctx context.Context, poolID string) (models.AssignmentCounts, error)
	GrantCounts(ctx context.Context, poolID string, now time.Time) (models.GrantCounts, error)
	SkillHistogram(ctx context.Context, poolID string, limit int) ([]models.SkillCount, error)
	SelectionBreakdown(ctx context.Context, poolID, companyID string) ([]models.SelectionTypeCount, error)
}

type accessLevelReader interface {
	IsAuthorized(ctx context.Context, poolID, companyID string, required models.AccessLevel) (bool, error)
	ActiveLevel(ctx context.Context, poolID, companyID string) (*models.AccessLevel, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// StatsOptions tunes the aggregator.
type StatsOptions struct {
	TopSkills         int
	NearCapacityRatio float64
	CacheTTL          time.Duration
}

// StatsService derives read-only views over a pool.
type StatsService struct {
	stats   statsStore
	pools   poolFinder
	access  accessLevelReader
	cache   statsCache
	metrics *MetricsService
	opts    StatsOptions
	logger  *zap.Logger
	now     func() time.Time
}

// NewStatsService constructs the aggregator. A nil cache disables response caching.
func NewStatsService(stats statsStore, pools poolFinder, access accessLevelReader, cache statsCache, metrics *MetricsService, opts StatsOptions, logger *zap.Logger) *StatsService {
	if opts.TopSkills <= 0 {
		opts.TopSkills = 10
	}
	if opts.NearCapacityRatio <= 0 || opts.NearCapacityRatio > 1 {
		opts.NearCapacityRatio = 0.8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{stats: stats, pools: pools, access: access, cache: cache, metrics: metrics, opts: opts, logger: logger, now: time.Now}
}

// PoolStats aggregates assignment, grant, capacity, skill and selection figures.
func (s *StatsService) PoolStats(ctx context.Context, poolID string, actor *models.Actor) (*models.PoolStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var cached models.PoolStats
	if s.cached(ctx, PoolStatsKey(poolID), &cached) {
		return &cached, nil
	}

	pool, err := s.pools.FindByID(ctx, poolID)
	if err != nil {
		return nil, notFoundOr(err, "pool", "failed to load pool")
	}
	stats, err := s.poolStats(ctx, pool)
	if err != nil {
		return nil, err
	}
	s.store(ctx, PoolStatsKey(poolID), stats, stats.Grants)
	return stats, nil
}

// CompanyPoolStats adds the company's own selection breakdown and access level.
// Company actors need at least view access.
func (s *StatsService) CompanyPoolStats(ctx context.Context, poolID, companyID string, actor *models.Actor) (*models.CompanyPoolStats, error) {
	if err := requireCompanyScope(actor, companyID); err != nil {
		return nil, err
	}
	pool, err := s.pools.FindByID(ctx, poolID)
	if err != nil {
		return nil, notFoundOr(err, "pool", "failed to load pool")
	}
	if !actor.IsAdmin() {
		ok, err := s.access.IsAuthorized(ctx, poolID, companyID, models.AccessLevelView)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.metrics.PermissionDenied(models.AccessLevelView)
			return nil, permissionDenied(models.AccessLevelView)
		}
	}

	key := CompanyStatsKey(poolID, companyID)
	var cached models.CompanyPoolStats
	if s.cached(ctx, key, &cached) {
		return &cached, nil
	}

	base, err := s.poolStats(ctx, pool)
	if err != nil {
		return nil, err
	}
	level, err := s.access.ActiveLevel(ctx, poolID, companyID)
	if err != nil {
		return nil, err
	}
	rows, err := s.stats.SelectionBreakdown(ctx, poolID, companyID)
	if err != nil {
		return nil, internalError(err, "failed to aggregate selections")
	}

	result := &models.CompanyPoolStats{
		PoolStats:         *base,
		CompanyID:         companyID,
		AccessLevel:       level,
		CompanySelections: selectionMap(rows),
	}
	s.store(ctx, key, result, base.Grants)
	return result, nil
}

func (s *StatsService) poolStats(ctx context.Context, pool *models.Pool) (*models.PoolStats, error) {
	assignments, err := s.stats.AssignmentCounts(ctx, pool.ID)
	if err != nil {
		return nil, internalError(err, "failed to count assignments")
	}
	grants, err := s.stats.GrantCounts(ctx, pool.ID, s.now().UTC())
	if err != nil {
		return nil, internalError(err, "failed to count grants")
	}
	skills, err := s.stats.SkillHistogram(ctx, pool.ID, s.opts.TopSkills)
	if err != nil {
		return nil, internalError(err, "failed to build skill histogram")
	}
	if skills == nil {
		skills = []models.SkillCount{}
	}
	selections, err := s.stats.SelectionBreakdown(ctx, pool.ID, "")
	if err != nil {
		return nil, internalError(err, "failed to aggregate selections")
	}

	return &models.PoolStats{
		PoolID:      pool.ID,
		Assignments: assignments,
		Grants:      grants,
		Capacity:    capacityUsage(pool.MaxCandidates, assignments.Total, s.opts.NearCapacityRatio),
		TopSkills:   skills,
		Selections:  selectionMap(selections),
	}, nil
}

func (s *StatsService) cached(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	return err == nil && hit
}

// store caches value until the configured TTL or the pool's next grant expiry,
// whichever comes first, so active counts and access levels never outlive a grant.
func (s *StatsService) store(ctx context.Context, key string, value interface{}, grants models.GrantCounts) {
	if s.cache == nil {
		return
	}
	ttl := s.opts.CacheTTL
	if grants.NextExpiry != nil {
		remaining := grants.NextExpiry.Sub(s.now())
		if remaining < time.Second {
			return
		}
		if ttl <= 0 || remaining < ttl {
			ttl = remaining
		}
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.Debug("stats cache write skipped", zap.String("key", key), zap.Error(err))
	}
}

// capacityUsage computes utilization against an optional ceiling. A zero ceiling is full.
func capacityUsage(ceiling *int, used int, ratio float64) models.CapacityUsage {
	usage := models.CapacityUsage{Used: used}
	if ceiling == nil {
		return usage
	}
	limit := *ceiling
	available := limit - used
	if available < 0 {
		available = 0
	}
	pct := 100.0
	if limit > 0 {
		pct = math.Round(float64(used)/float64(limit)*10000) / 100
	}
	usage.Ceiling = &limit
	usage.Available = &available
	usage.UtilizationPct = &pct
	usage.NearCapacity = float64(used) >= ratio*float64(limit)
	return usage
}

func selectionMap(rows []models.SelectionTypeCount) map[models.SelectionType]int {
	out := make(map[models.SelectionType]int, len(models.SelectionTypes))
	for _, t := range models.SelectionTypes {
		out[t] = 0
	}
	for _, row := range rows {
		out[row.SelectionType] += row.Count
	}
	return out
}
