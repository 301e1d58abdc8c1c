package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the storefront counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// StorefrontMetrics records checkout, order, notification and cart activity.
// A nil receiver or one built without a registerer is a no-op.
type StorefrontMetrics struct {
	checkoutSubmissions *prometheus.CounterVec
	orderDuration       *prometheus.HistogramVec
	notifications       *prometheus.CounterVec
	cartMutations       *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront collectors on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	checkoutSubmissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_submissions_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	orderDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_order_placement_duration_seconds",
		Help:    "Duration of order placement in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_notifications_total",
		Help: "Order notification dispatches by outcome.",
	}, []string{"outcome"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	reg.MustRegister(checkoutSubmissions, orderDuration, notifications, cartMutations)
	return &StorefrontMetrics{
		checkoutSubmissions: checkoutSubmissions,
		orderDuration:       orderDuration,
		notifications:       notifications,
		cartMutations:       cartMutations,
	}
}

func (m *StorefrontMetrics) IncCheckoutSubmission(outcome string) {
	if m == nil || m.checkoutSubmissions == nil {
		return
	}
	m.checkoutSubmissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *StorefrontMetrics) ObserveOrderPlacement(outcome string, duration time.Duration) {
	if m == nil || m.orderDuration == nil {
		return
	}
	m.orderDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

func (m *StorefrontMetrics) IncNotification(outcome string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *StorefrontMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
