package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talent-pool-api/internal/models"
	appErrors "github.com/noah-isme/talent-pool-api/pkg/errors"
)

type cacheRepoStub struct {
	store    map[string][]byte
	patterns []string
	getErr   error
	delErr   error
	ttls     []time.Duration
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{store: map[string][]byte{}}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	if c.getErr != nil {
		return c.getErr
	}
	raw, ok := c.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store[key] = raw
	c.ttls = append(c.ttls, ttl)
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return c.delErr
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	repo := newCacheRepoStub()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)

	var out models.PoolStats
	hit, err := svc.Get(context.Background(), PoolStatsKey("p1"), &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), PoolStatsKey("p1"), models.PoolStats{PoolID: "p1"}, 0))
	assert.Equal(t, []time.Duration{30 * time.Second}, repo.ttls)

	hit, err = svc.Get(context.Background(), PoolStatsKey("p1"), &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "p1", out.PoolID)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))
}

func TestCacheServiceInvalidatePoolCoversCompanyKeys(t *testing.T) {
	repo := newCacheRepoStub()
	repo.delErr = errors.New("redis down")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	svc.InvalidatePool(context.Background(), "p1")
	require.Len(t, repo.patterns, 1)
	assert.Equal(t, "stats:pool:p1*", repo.patterns[0])
	assert.Contains(t, CompanyStatsKey("p1", "c1"), "stats:pool:p1")
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	hit, err := svc.Get(context.Background(), "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
	svc.InvalidatePool(context.Background(), "p1")
	assert.Empty(t, repo.store)
	assert.Empty(t, repo.patterns)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestMetricsServiceHandlerExposesDomainCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.AssignmentsAdded(models.PoolTypeCustom, 3)
	metrics.CapacityRejected("CAPACITY_EXCEEDED")
	metrics.GrantsSwept(2)
	metrics.ObserveHTTPRequest(http.MethodGet, "/pools/:id", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `pool_assignments_added_total{pool_type="custom"} 3`)
	assert.Contains(t, body, `pool_capacity_rejections_total{reason="CAPACITY_EXCEEDED"} 1`)
	assert.Contains(t, body, "pool_access_grants_swept_total 2")
	assert.Contains(t, body, `http_requests_total{method="GET",path="/pools/:id",status="200"} 1`)

	var nilMetrics *MetricsService
	assert.NotPanics(t, func() {
		nilMetrics.AssignmentRemoved()
		nilMetrics.EventPublished("x", nil)
	})
}
