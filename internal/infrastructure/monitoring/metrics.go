package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results used as label values.
const (
	ResultSuccess = "success"
	ResultWarning = "warning"
	ResultFailure = "failure"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Backend process metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	BackendRunning    prometheus.Gauge

	// Admin server metrics
	AdminRequests        *prometheus.CounterVec
	AdminRequestDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a metrics collector backed by its own registry, so
// several instances can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// Backend process metrics
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handyshell_backend_operations_total",
				Help: "Total number of backend process operations by outcome",
			},
			[]string{"operation", "result"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "handyshell_backend_operation_duration_seconds",
				Help:    "Backend process operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		BackendRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "handyshell_backend_running",
				Help: "Whether the backend process is running (1) or not (0)",
			},
		),

		// Admin server metrics
		AdminRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handyshell_admin_requests_total",
				Help: "Total number of admin HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		AdminRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "handyshell_admin_request_duration_seconds",
				Help:    "Admin HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "handyshell_uptime_seconds",
			Help: "Shell uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordOperation records a spawn or terminate attempt
func (m *Metrics) RecordOperation(operation, result string, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, result).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetBackendRunning sets the backend running gauge
func (m *Metrics) SetBackendRunning(running bool) {
	if running {
		m.BackendRunning.Set(1)
		return
	}
	m.BackendRunning.Set(0)
}

// RecordAdminRequest records an admin HTTP request
func (m *Metrics) RecordAdminRequest(method, path, status string, duration time.Duration) {
	m.AdminRequests.WithLabelValues(method, path, status).Inc()
	m.AdminRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
