package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recogym_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recogym_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recogym_ledger_entries_total",
			Help: "Total number of cash ledger entries recorded",
		},
		[]string{"type", "payment_method"},
	)

	LedgerAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recogym_ledger_amount_total",
			Help: "Sum of recorded cash ledger amounts",
		},
		[]string{"type"},
	)

	EnrollmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recogym_enrollments_total",
			Help: "Class enrollment attempts by result",
		},
		[]string{"result"},
	)

	SalesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recogym_sales_total",
			Help: "Total number of registered sales",
		},
		[]string{"payment_method"},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recogym_subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
		[]string{"plan"},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recogym_notifications_sent_total",
			Help: "Total number of notifications sent",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recogym_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordLedgerEntry(entryType, paymentMethod string, amount float64) {
	LedgerEntriesTotal.WithLabelValues(entryType, paymentMethod).Inc()
	LedgerAmountTotal.WithLabelValues(entryType).Add(amount)
}

func RecordEnrollment(result string) {
	EnrollmentsTotal.WithLabelValues(result).Inc()
}

func RecordSale(paymentMethod string) {
	SalesTotal.WithLabelValues(paymentMethod).Inc()
}

func RecordSubscription(plan string) {
	SubscriptionsCreatedTotal.WithLabelValues(plan).Inc()
}

func RecordNotification(kind, status string) {
	NotificationsSentTotal.WithLabelValues(kind, status).Inc()
}
