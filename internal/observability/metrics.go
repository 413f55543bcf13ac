package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Token request outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// MetricsManager manages Prometheus metrics
type MetricsManager struct {
	logger   *zap.SugaredLogger
	registry *prometheus.Registry

	uptime        prometheus.Gauge
	proxyRequests *prometheus.CounterVec
	proxyDuration *prometheus.HistogramVec
	tokenRequests *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	clientsTotal  prometheus.Gauge
}

// NewMetricsManager creates a new metrics manager
func NewMetricsManager(logger *zap.SugaredLogger) *MetricsManager {
	registry := prometheus.NewRegistry()

	mm := &MetricsManager{
		logger:   logger,
		registry: registry,
	}

	mm.initMetrics()
	mm.registerMetrics()

	return mm
}

// initMetrics initializes all Prometheus metrics
func (mm *MetricsManager) initMetrics() {
	mm.uptime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "oauthbff_uptime_seconds",
		Help: "Time since the application started",
	})

	mm.proxyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauthbff_proxy_requests_total",
			Help: "Total number of proxied downstream requests",
		},
		[]string{"client", "method", "status"},
	)

	mm.proxyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oauthbff_proxy_request_duration_seconds",
			Help:    "Proxied request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"client", "method"},
	)

	mm.tokenRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauthbff_token_requests_total",
			Help: "Total number of token acquisition attempts",
		},
		[]string{"client", "outcome"},
	)

	mm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauthbff_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	mm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oauthbff_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	mm.clientsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "oauthbff_clients_registered",
		Help: "Number of currently registered OAuth clients",
	})
}

// registerMetrics registers all metrics with the registry
func (mm *MetricsManager) registerMetrics() {
	mm.registry.MustRegister(
		mm.uptime,
		mm.proxyRequests,
		mm.proxyDuration,
		mm.tokenRequests,
		mm.httpRequests,
		mm.httpDuration,
		mm.clientsTotal,
	)

	// Also register Go runtime metrics
	mm.registry.MustRegister(collectors.NewGoCollector())
	mm.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler returns an HTTP handler for the /metrics endpoint
func (mm *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// SetUptime sets the uptime metric
func (mm *MetricsManager) SetUptime(startTime time.Time) {
	mm.uptime.Set(time.Since(startTime).Seconds())
}

// RecordProxyRequest records a proxied downstream call
func (mm *MetricsManager) RecordProxyRequest(client, method string, status int, duration time.Duration) {
	mm.proxyRequests.WithLabelValues(client, method, strconv.Itoa(status)).Inc()
	mm.proxyDuration.WithLabelValues(client, method).Observe(duration.Seconds())
}

// RecordTokenRequest records a token acquisition attempt
func (mm *MetricsManager) RecordTokenRequest(client string, success bool) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeError
	}
	mm.tokenRequests.WithLabelValues(client, outcome).Inc()
}

// RecordHTTPRequest records an HTTP request
func (mm *MetricsManager) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	mm.httpRequests.WithLabelValues(method, path, status).Inc()
	mm.httpDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// SetClientsRegistered sets the number of registered clients
func (mm *MetricsManager) SetClientsRegistered(count int) {
	mm.clientsTotal.Set(float64(count))
}

// HTTPMiddleware returns middleware that records HTTP metrics
func (mm *MetricsManager) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			mm.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(ww.statusCode), duration)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
