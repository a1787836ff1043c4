package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// AnalyticsUpdateFailures counts analytics side effects that failed and
	// were swallowed so the task operation could still succeed.
	AnalyticsUpdateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_update_failures_total",
			Help: "Analytics updates that failed during task lifecycle events",
		},
		[]string{"event"},
	)

	ImageStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_store_errors_total",
			Help: "Failed image store operations",
		},
		[]string{"operation"},
	)

	OverdueTasksFlagged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overdue_tasks_flagged_total",
			Help: "Tasks flagged overdue by the scheduled sweep",
		},
	)
)

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
