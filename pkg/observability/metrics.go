package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the console
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Upstream platform API metrics
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// Auth metrics
	SignInsTotal       *prometheus.CounterVec
	GuardRedirectsTotal *prometheus.CounterVec

	// Permission cache metrics
	PermissionCacheHits   prometheus.Counter
	PermissionCacheMisses prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "novaflow_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "novaflow_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		UpstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "novaflow_upstream_requests_total",
				Help: "Total number of upstream platform API requests",
			},
			[]string{"resource", "operation", "status"},
		),
		UpstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "novaflow_upstream_request_duration_seconds",
				Help:    "Upstream platform API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource", "operation"},
		),
		SignInsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "novaflow_sign_ins_total",
				Help: "Total number of sign-in attempts",
			},
			[]string{"outcome"},
		),
		GuardRedirectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "novaflow_guard_redirects_total",
				Help: "Total number of route guard redirects",
			},
			[]string{"tier", "target"},
		),
		PermissionCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "novaflow_permission_cache_hits_total",
				Help: "Total number of permission cache hits",
			},
		),
		PermissionCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "novaflow_permission_cache_misses_total",
				Help: "Total number of permission cache misses",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDuration,
		m.SignInsTotal,
		m.GuardRedirectsTotal,
		m.PermissionCacheHits,
		m.PermissionCacheMisses,
	)

	return m
}

// ObserveHTTP records a completed HTTP request
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveUpstream records a completed upstream API call
func (m *Metrics) ObserveUpstream(resource, operation string, status int, duration time.Duration) {
	m.UpstreamRequestsTotal.WithLabelValues(resource, operation, strconv.Itoa(status)).Inc()
	m.UpstreamRequestDuration.WithLabelValues(resource, operation).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for the registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
