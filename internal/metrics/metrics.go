// Package metrics defines the Prometheus collectors of the CLI and the
// verification server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	univerify "github.com/univerify/univerify/sdk/go"
)

// Counter metrics (monotonically increasing)
var (
	// UploadsTotal counts upload attempts by outcome (confirmed, unconfirmed, failed)
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univerify_uploads_total",
			Help: "Total number of document upload attempts",
		},
		[]string{"status"},
	)

	// VerificationsTotal counts verification lookups by result (valid, changed, invalid)
	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univerify_verifications_total",
			Help: "Total number of document verifications",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal counts requests served by method, path, and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univerify_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	// BackendRequestsTotal counts requests sent to the backend by method and status code
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univerify_backend_requests_total",
			Help: "Total number of requests sent to the UniVerify backend",
		},
		[]string{"method", "code"},
	)

	// ErrorsTotal counts application errors by type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "univerify_errors_total",
			Help: "Total number of application errors",
		},
		[]string{"type"},
	)
)

// Histogram metrics (distributions)
var (
	// HTTPRequestDuration tracks served request latency by method and path
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "univerify_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// BackendRequestDuration tracks backend round-trip latency by method
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "univerify_backend_request_duration_seconds",
			Help:    "Backend request latency in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"method"},
	)

	// UploadSizeBytes tracks distribution of uploaded document sizes
	UploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "univerify_upload_size_bytes",
			Help: "Distribution of uploaded document sizes in bytes",
			Buckets: []float64{
				1024,     // 1 KB
				10240,    // 10 KB
				102400,   // 100 KB
				1048576,  // 1 MB
				5242880,  // 5 MB
				10485760, // 10 MB
			},
		},
	)

	// ConfirmationAttempts tracks how many status fetches a transaction needed
	ConfirmationAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "univerify_confirmation_attempts",
			Help:    "Transaction status fetches until confirmation or timeout",
			Buckets: []float64{1, 2, 3, 5, 10, 20},
		},
	)
)

// Health check metrics
var (
	// HealthStatus is a gauge representing current health status
	// Values: 0 = unhealthy, 1 = degraded, 2 = healthy
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "univerify_health_status",
			Help: "Current health status (0=unhealthy, 1=degraded, 2=healthy)",
		},
	)

	// HealthCheckDuration tracks health check execution time
	HealthCheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "univerify_health_check_duration_seconds",
			Help:    "Health check execution time in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)
)

// Verification result labels.
const (
	ResultValid   = "valid"
	ResultChanged = "changed"
	ResultInvalid = "invalid"
)

// VerificationResultLabel maps a verification to its result label. A valid
// document whose content drifted counts as changed.
func VerificationResultLabel(r univerify.VerificationResult) string {
	switch {
	case !r.IsValid:
		return ResultInvalid
	case r.Document != nil && r.Document.HasChanged:
		return ResultChanged
	default:
		return ResultValid
	}
}

// RecordVerification increments VerificationsTotal for r.
func RecordVerification(r univerify.VerificationResult) {
	VerificationsTotal.WithLabelValues(VerificationResultLabel(r)).Inc()
}
