// Package metrics defines Prometheus metrics for the toggle service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toggle_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toggle_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toggle_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	MutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toggle_mutations_total",
			Help: "Toggle requests by resource and outcome",
		},
		[]string{"resource", "result"},
	)

	AuditQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "toggle_audit_queue_depth",
			Help: "Current audit queue depth",
		},
	)

	AuditDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "toggle_audit_dropped_total",
			Help: "Audit entries dropped because the queue was full",
		},
	)

	AuditSinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toggle_audit_sink_errors_total",
			Help: "Audit sink write failures",
		},
		[]string{"sink"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "toggle_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	AuthLockoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toggle_auth_lockouts_total",
			Help: "Credentials locked out after repeated failures",
		},
		[]string{"guard"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		MutationsTotal,
		AuditQueueDepth, AuditDroppedTotal, AuditSinkErrorsTotal,
		WSConnections, AuthLockoutsTotal,
	)
}
