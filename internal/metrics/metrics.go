package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes recorded by FetchesTotal.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeStale   = "stale"
)

// Metrics represents the collection of all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Standard metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Data source metrics
	FetchesTotal    *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	CacheLookups    *prometheus.CounterVec
	RecordsLoaded   prometheus.Gauge
	SkippedElements prometheus.Counter
	ActiveObservers prometheus.Gauge
}

// NewMetrics creates all metrics and registers them on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvedash_fetches_total",
			Help: "Record collection fetches by outcome",
		},
		[]string{"outcome"},
	)

	m.FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cvedash_fetch_duration_seconds",
			Help:    "Duration of record collection fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvedash_cache_lookups_total",
			Help: "Snapshot cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)

	m.RecordsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cvedash_records",
			Help: "Number of records in the current snapshot",
		},
	)

	m.SkippedElements = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cvedash_skipped_elements_total",
			Help: "Collection elements skipped because they were not objects",
		},
	)

	m.ActiveObservers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cvedash_active_observers",
			Help: "Number of views subscribed to the shared loader",
		},
	)

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.FetchesTotal,
		m.FetchDuration,
		m.CacheLookups,
		m.RecordsLoaded,
		m.SkippedElements,
		m.ActiveObservers,
	)

	return m
}

// Registry exposes the registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware for tracking HTTP requests
func (m *Metrics) RequestTrackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// responseWriter is a wrapper to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// The recorders below are safe on a nil *Metrics so callers can run without
// instrumentation.

// ObserveFetch records one fetch of the record collection.
func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// CacheHit records a lookup served from the snapshot cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a lookup that required a fetch.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// SetRecords records the size of the installed snapshot.
func (m *Metrics) SetRecords(n int) {
	if m == nil {
		return
	}
	m.RecordsLoaded.Set(float64(n))
}

// AddSkipped counts skipped non-object elements.
func (m *Metrics) AddSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SkippedElements.Add(float64(n))
}

// SetObservers records the number of subscribed views.
func (m *Metrics) SetObservers(n int) {
	if m == nil {
		return
	}
	m.ActiveObservers.Set(float64(n))
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
