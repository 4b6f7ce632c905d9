// Package telemetry holds Prometheus metrics for business-level
// observability.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the storefront's Prometheus metrics.
type Metrics struct {
	// Cart & checkout funnel
	CartUpdates       *prometheus.CounterVec
	CheckoutStarted   prometheus.Counter
	CheckoutCompleted prometheus.Counter
	CheckoutFailed    *prometheus.CounterVec

	// Orders
	OrdersCreated  prometheus.Counter
	OrderValue     prometheus.Histogram
	OrdersPaid     prometheus.Counter
	OrdersByStatus *prometheus.CounterVec

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   prometheus.Histogram

	// Revenue
	RevenueCollected prometheus.Counter
}

// NewMetrics creates and registers all metrics on the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "embla"
	}

	return &Metrics{
		CartUpdates: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_updates_total",
				Help:      "Cart mutations by action (add, update, remove, clear)",
			},
			[]string{"action"},
		),
		CheckoutStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_started_total",
				Help:      "Checkout attempts",
			},
		),
		CheckoutCompleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_completed_total",
				Help:      "Checkouts that produced an order with a payment intent",
			},
		),
		CheckoutFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_failed_total",
				Help:      "Failed checkouts by error code",
			},
			[]string{"code"},
		),
		OrdersCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Orders created",
			},
		),
		OrderValue: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "order_value_eur",
				Help:      "Order totals in EUR",
				Buckets:   []float64{10, 20, 39, 60, 100, 200},
			},
		),
		OrdersPaid: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_paid_total",
				Help:      "Orders reconciled to paid",
			},
		),
		OrdersByStatus: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_status_transitions_total",
				Help:      "Order status transitions by target status",
			},
			[]string{"status"},
		),
		WebhookReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_received_total",
				Help:      "Webhook events received by type",
			},
			[]string{"type"},
		),
		WebhookProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_processed_total",
				Help:      "Webhook events processed by outcome",
			},
			[]string{"result"},
		),
		WebhookFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_failed_total",
				Help:      "Webhook events that failed by reason",
			},
			[]string{"reason"},
		),
		WebhookLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "webhook_duration_seconds",
				Help:      "Webhook handling latency",
				Buckets:   prometheus.DefBuckets,
			},
		),
		RevenueCollected: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "revenue_collected_eur_total",
				Help:      "Revenue from reconciled orders in EUR",
			},
		),
	}
}
