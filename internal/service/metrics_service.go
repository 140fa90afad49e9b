package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/talent-pool-api/internal/models"
)

// MetricsService owns the Prometheus registry for HTTP, cache and pool activity.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheLookups    *prometheus.CounterVec

	assignmentsAdded   *prometheus.CounterVec
	assignmentsRemoved prometheus.Counter
	capacityRejections *prometheus.CounterVec
	selections         *prometheus.CounterVec
	permissionDenials  *prometheus.CounterVec
	grantChanges       *prometheus.CounterVec
	grantsSwept        prometheus.Counter
	eventsPublished    *prometheus.CounterVec
}

// NewMetricsService registers every collector on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stats_cache_latency_seconds",
			Help:    "Latency for stats cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stats_cache_write_seconds",
			Help:    "Latency for stats cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stats_cache_lookups_total",
			Help: "Stats cache lookups by result",
		}, []string{"result"}),
		assignmentsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_assignments_added_total",
			Help: "Candidates assigned to pools",
		}, []string{"pool_type"}),
		assignmentsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_assignments_removed_total",
			Help: "Candidates removed from pools",
		}),
		capacityRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_capacity_rejections_total",
			Help: "Writes rejected by a pool capacity ceiling",
		}, []string{"reason"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_selections_recorded_total",
			Help: "Selections recorded by type",
		}, []string{"selection_type"}),
		permissionDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_permission_denials_total",
			Help: "Actions refused for insufficient access level",
		}, []string{"required_level"}),
		grantChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_access_grant_changes_total",
			Help: "Access grant mutations by operation",
		}, []string{"operation"}),
		grantsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pool_access_grants_swept_total",
			Help: "Expired grants removed by the background sweep",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pool_events_published_total",
			Help: "Domain events handed to the publisher by outcome",
		}, []string{"event_type", "outcome"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal, m.cacheLatency, m.cacheWrite, m.cacheLookups,
		m.assignmentsAdded, m.assignmentsRemoved, m.capacityRejections, m.selections, m.permissionDenials,
		m.grantChanges, m.grantsSwept, m.eventsPublished, goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a stats cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveCacheWrite tracks the duration of stats cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// AssignmentsAdded counts a committed batch.
func (m *MetricsService) AssignmentsAdded(poolType models.PoolType, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.assignmentsAdded.WithLabelValues(string(poolType)).Add(float64(n))
}

// AssignmentRemoved counts a removed assignment.
func (m *MetricsService) AssignmentRemoved() {
	if m == nil {
		return
	}
	m.assignmentsRemoved.Inc()
}

// CapacityRejected counts a write refused by a ceiling; reason is the error code.
func (m *MetricsService) CapacityRejected(reason string) {
	if m == nil {
		return
	}
	m.capacityRejections.WithLabelValues(reason).Inc()
}

// SelectionRecorded counts a recorded disposition.
func (m *MetricsService) SelectionRecorded(selectionType models.SelectionType) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(string(selectionType)).Inc()
}

// PermissionDenied counts a refused action.
func (m *MetricsService) PermissionDenied(required models.AccessLevel) {
	if m == nil {
		return
	}
	m.permissionDenials.WithLabelValues(string(required)).Inc()
}

// GrantChanged counts grant, update and revoke operations.
func (m *MetricsService) GrantChanged(operation string) {
	if m == nil {
		return
	}
	m.grantChanges.WithLabelValues(operation).Inc()
}

// GrantsSwept counts grants removed by the sweeper.
func (m *MetricsService) GrantsSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.grantsSwept.Add(float64(n))
}

// EventPublished counts publisher outcomes.
func (m *MetricsService) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.eventsPublished.WithLabelValues(eventType, outcome).Inc()
}
