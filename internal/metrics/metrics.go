package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	ordersFinalizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_orders_finalized_total",
			Help: "Total number of orders committed to processing",
		},
	)

	ordersOnHoldTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_orders_on_hold_total",
			Help: "Total number of orders parked on hold after a lost stock race",
		},
	)

	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_payments_total",
			Help: "Total number of payment outcomes",
		},
		[]string{"method", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(ordersFinalizedTotal)
	prometheus.MustRegister(ordersOnHoldTotal)
	prometheus.MustRegister(paymentsTotal)
}

// ObserveHTTPRequest records latency of a finished HTTP request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// RecordOrderFinalized counts a successful finalization commit.
func RecordOrderFinalized() {
	ordersFinalizedTotal.Inc()
}

// RecordOrderOnHold counts an order parked for manual review.
func RecordOrderOnHold() {
	ordersOnHoldTotal.Inc()
}

// RecordPayment counts a payment outcome by method and status.
func RecordPayment(method, status string) {
	paymentsTotal.WithLabelValues(method, status).Inc()
}
