package prometheus

import (
	"strconv"
	"time"

	"github.com/silicondon/columbia-compliance-portal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Domain operation counters
	VendorOperationsCounter      prometheus.CounterVec
	CertificateOperationsCounter prometheus.CounterVec

	// Compliance evaluation metrics
	ComplianceChecksCounter prometheus.CounterVec
	ComplianceGapsCounter   prometheus.CounterVec

	// Notification metrics
	NotificationsSentCounter   prometheus.CounterVec
	NotificationFailedCounter  prometheus.CounterVec
	NotificationRunsCounter    prometheus.Counter
	WebhookEventsCounter       prometheus.CounterVec
	VendorsByStatusGauge       prometheus.GaugeVec
	CertificatesExpiringGauge  prometheus.GaugeVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Vendor operation counters
	VendorOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_vendor_operations_total",
			Help: "Total number of vendor operations",
		},
		[]string{"operation"},
	)

	// Certificate operation counters
	CertificateOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_certificate_operations_total",
			Help: "Total number of certificate operations",
		},
		[]string{"operation"},
	)

	// Compliance evaluation metrics
	ComplianceChecksCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_compliance_checks_total",
			Help: "Total number of compliance evaluations by verdict",
		},
		[]string{"result"},
	)

	ComplianceGapsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_compliance_gaps_total",
			Help: "Total number of compliance gaps detected by kind",
		},
		[]string{"kind"},
	)

	// Notification metrics
	NotificationsSentCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_notifications_sent_total",
			Help: "Total number of notifications sent by category",
		},
		[]string{"category"},
	)

	NotificationFailedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_notification_failures_total",
			Help: "Total number of failed notification sends by category",
		},
		[]string{"category"},
	)

	NotificationRunsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_notification_runs_total",
			Help: "Total number of notification scheduler runs",
		},
	)

	// Webhook metrics
	WebhookEventsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_webhook_events_total",
			Help: "Total number of Brokermatic webhook events received by type",
		},
		[]string{"event"},
	)

	// Fleet-level gauges refreshed by dashboard queries
	VendorsByStatusGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_vendors_by_insurance_status",
			Help: "Number of vendors per insurance status",
		},
		[]string{"status"},
	)

	CertificatesExpiringGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_certificates_expiring",
			Help: "Number of certificates expiring within the window",
		},
		[]string{"window_days"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordVendorOperation increments the counter for vendor operations
func RecordVendorOperation(operation string) {
	VendorOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordCertificateOperation increments the counter for certificate operations
func RecordCertificateOperation(operation string) {
	CertificateOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordComplianceCheck increments the compliance check counter for a verdict
func RecordComplianceCheck(result string) {
	ComplianceChecksCounter.WithLabelValues(result).Inc()
}

// RecordComplianceGap increments the gap counter for a gap kind
func RecordComplianceGap(kind string) {
	ComplianceGapsCounter.WithLabelValues(kind).Inc()
}

// RecordNotificationSent increments the sent counter for a notification category
func RecordNotificationSent(category string) {
	NotificationsSentCounter.WithLabelValues(category).Inc()
}

// RecordNotificationFailure increments the failure counter for a notification category
func RecordNotificationFailure(category string) {
	NotificationFailedCounter.WithLabelValues(category).Inc()
}

// RecordWebhookEvent increments the webhook event counter
func RecordWebhookEvent(event string) {
	WebhookEventsCounter.WithLabelValues(event).Inc()
}

// UpdateVendorsByStatus sets the vendors-per-status gauge
func UpdateVendorsByStatus(status string, count int64) {
	VendorsByStatusGauge.WithLabelValues(status).Set(float64(count))
}

// UpdateCertificatesExpiring sets the expiring-certificates gauge for a window
func UpdateCertificatesExpiring(windowDays int, count int64) {
	CertificatesExpiringGauge.WithLabelValues(strconv.Itoa(windowDays)).Set(float64(count))
}
