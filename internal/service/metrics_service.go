package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP, cache and generator metrics.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec

	generateDuration prometheus.Histogram
	generateSlots    *prometheus.CounterVec
	linearWarnings   prometheus.Gauge
	applyTotal       *prometheus.CounterVec
	appliedRows      prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	generateDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_generate_duration_seconds",
		Help:    "Wall time of timetable generation runs",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	generateSlots := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_slots_total",
		Help: "Slots visited by the generator by outcome",
	}, []string{"outcome"})

	linearWarnings := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_linear_warnings",
		Help: "Linear-hour warnings produced by the latest generation run",
	})

	applyTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_apply_total",
		Help: "Apply attempts by result",
	}, []string{"result"})

	appliedRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_applied_rows_total",
		Help: "Schedule rows persisted by apply",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		generateDuration, generateSlots, linearWarnings, applyTotal, appliedRows, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheLookups:     cacheLookups,
		generateDuration: generateDuration,
		generateSlots:    generateSlots,
		linearWarnings:   linearWarnings,
		applyTotal:       applyTotal,
		appliedRows:      appliedRows,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveGeneration records one generation run.
func (m *MetricsService) ObserveGeneration(filled, failed, warnings int, duration time.Duration) {
	if m == nil {
		return
	}
	m.generateDuration.Observe(duration.Seconds())
	m.generateSlots.WithLabelValues("filled").Add(float64(filled))
	m.generateSlots.WithLabelValues("failed").Add(float64(failed))
	m.linearWarnings.Set(float64(warnings))
}

// ObserveApply records an apply attempt; rows counts persisted entries on success.
func (m *MetricsService) ObserveApply(result string, rows int) {
	if m == nil {
		return
	}
	m.applyTotal.WithLabelValues(result).Inc()
	if rows > 0 {
		m.appliedRows.Add(float64(rows))
	}
}
