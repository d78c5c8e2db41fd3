package prometheus

import (
	"time"

	"tableserve/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   *prometheus.CounterVec

	// Order metrics
	OrdersPlacedCounter      prometheus.Counter
	OrdersFailedCounter      *prometheus.CounterVec
	OrderStatusCounter       *prometheus.CounterVec
	OrderTotalAmountObserver prometheus.Histogram

	// Inventory metrics
	StockAdjustmentsCounter *prometheus.CounterVec
	StockAlertsCounter      prometheus.Counter

	// Event publishing metrics
	EventsPublishedCounter *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	// Use metric prefix from configuration
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthErrorsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors by reason",
		},
		[]string{"reason"},
	)

	OrdersPlacedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_placed_total",
			Help: "Total number of successfully placed orders",
		},
	)

	OrdersFailedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_orders_failed_total",
			Help: "Total number of rejected order placements by reason",
		},
		[]string{"reason"},
	)

	OrderStatusCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_status_transitions_total",
			Help: "Total number of order status transitions",
		},
		[]string{"status"},
	)

	OrderTotalAmountObserver = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_order_total_amount",
			Help:    "Distribution of order totals",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500},
		},
	)

	StockAdjustmentsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_stock_adjustments_total",
			Help: "Total number of stock ledger adjustments by result",
		},
		[]string{"result"},
	)

	StockAlertsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_stock_alerts_created_total",
			Help: "Total number of low-stock alerts created",
		},
	)

	EventsPublishedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_events_published_total",
			Help: "Total number of domain events published by type",
		},
		[]string{"type"},
	)

	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
}

// RecordAuthError increments the auth error counter for a reason
func RecordAuthError(reason string) {
	if AuthErrorsCounter != nil {
		AuthErrorsCounter.WithLabelValues(reason).Inc()
	}
}

// RecordOrderFailure increments the failed order counter for a reason
func RecordOrderFailure(reason string) {
	if OrdersFailedCounter != nil {
		OrdersFailedCounter.WithLabelValues(reason).Inc()
	}
}

// TrackDBOperation returns a function that records the duration of a
// database operation when invoked with the start time.
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		if DbOperationDuration != nil {
			DbOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		}
	}
}
