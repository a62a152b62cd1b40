package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	bodySizeBuckets     = []float64{100, 1024, 10240, 102400, 1048576}
)

// Metrics holds all Prometheus metric instruments for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Request workflow metrics
	RequestsCreatedTotal *prometheus.CounterVec
	TransitionsTotal     *prometheus.CounterVec
	TransitionDenials    *prometheus.CounterVec
	RequestsCompleted    *prometheus.CounterVec

	// Field visit metrics
	FieldVisitsTotal   *prometheus.CounterVec
	VisitReportsTotal  prometheus.Counter

	// Route access metrics
	RouteDenialsTotal *prometheus.CounterVec

	// Cache metrics
	CapabilityCacheHitsTotal   prometheus.Counter
	CapabilityCacheMissesTotal prometheus.Counter
	CacheFlushesTotal          *prometheus.CounterVec
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msaada_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "msaada_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "msaada_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "msaada_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Request workflow
		RequestsCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msaada_requests_created_total",
			Help: "Total number of assistance requests created.",
		}, []string{"region"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msaada_transitions_total",
			Help: "Total number of accepted status transitions.",
		}, []string{"from", "to", "actor_role"}),
		TransitionDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msaada_transition_denials_total",
			Help: "Total number of denied status transitions by reason.",
		}, []string{"from", "to", "reason"}),
		RequestsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msaada_requests_completed_total",
			Help: "Total number of requests reaching a final status.",
		}, []string{"final_status"}),

		// Field visits
		FieldVisitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msaada_field_visits_total",
			Help: "Total number of field visit state changes.",
		}, []string{"event"}),
		VisitReportsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msaada_visit_reports_total",
			Help: "Total number of submitted field visit reports.",
		}),

		// Route access
		RouteDenialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msaada_route_denials_total",
			Help: "Total number of denied route navigations.",
		}, []string{"route", "role"}),

		// Cache
		CapabilityCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msaada_capability_cache_hits_total",
			Help: "Total capability cache hits.",
		}),
		CapabilityCacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msaada_capability_cache_misses_total",
			Help: "Total capability cache misses.",
		}),
		CacheFlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "msaada_cache_flushes_total",
			Help: "Total capability cache flushes by trigger table.",
		}, []string{"table"}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		// Workflow
		m.RequestsCreatedTotal,
		m.TransitionsTotal,
		m.TransitionDenials,
		m.RequestsCompleted,
		// Field visits
		m.FieldVisitsTotal,
		m.VisitReportsTotal,
		// Routes
		m.RouteDenialsTotal,
		// Cache
		m.CapabilityCacheHitsTotal,
		m.CapabilityCacheMissesTotal,
		m.CacheFlushesTotal,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordRequestCreated records a new assistance request.
func (m *Metrics) RecordRequestCreated(region string) {
	if region == "" {
		region = "unspecified"
	}
	m.RequestsCreatedTotal.WithLabelValues(region).Inc()
}

// RecordTransition records an accepted status transition.
func (m *Metrics) RecordTransition(from, to, actorRole string) {
	m.TransitionsTotal.WithLabelValues(from, to, actorRole).Inc()
}

// RecordTransitionDenial records a denied transition by reason code.
func (m *Metrics) RecordTransitionDenial(from, to, reason string) {
	m.TransitionDenials.WithLabelValues(from, to, reason).Inc()
}

// RecordRequestCompleted records a request reaching a final status.
func (m *Metrics) RecordRequestCompleted(finalStatus string) {
	m.RequestsCompleted.WithLabelValues(finalStatus).Inc()
}

// RecordFieldVisitEvent records a field visit state change
// (scheduled, started, rescheduled, completed, cancelled).
func (m *Metrics) RecordFieldVisitEvent(event string) {
	m.FieldVisitsTotal.WithLabelValues(event).Inc()
}

// RecordVisitReport records a submitted verification report.
func (m *Metrics) RecordVisitReport() {
	m.VisitReportsTotal.Inc()
}

// RecordRouteDenial records a denied route navigation.
func (m *Metrics) RecordRouteDenial(route, role string) {
	m.RouteDenialsTotal.WithLabelValues(route, role).Inc()
}

// RecordCapabilityCacheHit records a capability cache hit.
func (m *Metrics) RecordCapabilityCacheHit() {
	m.CapabilityCacheHitsTotal.Inc()
}

// RecordCapabilityCacheMiss records a capability cache miss.
func (m *Metrics) RecordCapabilityCacheMiss() {
	m.CapabilityCacheMissesTotal.Inc()
}

// RecordCacheFlush records a full capability cache flush.
func (m *Metrics) RecordCacheFlush(table string) {
	m.CacheFlushesTotal.WithLabelValues(table).Inc()
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		pathPattern := routePattern(r)
		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}

		m.RecordHTTPRequest(r.Method, pathPattern, sw.status, duration, reqSize, sw.bytes)
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
