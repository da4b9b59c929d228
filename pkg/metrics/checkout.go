package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the outcome of checkout and coupon operations.
type CheckoutMetrics struct {
	duration       *prometheus.HistogramVec
	ordersPlaced   prometheus.Counter
	checkoutFailed *prometheus.CounterVec
	couponRejected *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders successfully placed.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failed_total",
		Help: "Failed checkout attempts by reason.",
	}, []string{"reason"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_rejected_total",
		Help: "Coupon validations rejected by reason.",
	}, []string{"reason"})
	reg.MustRegister(duration, placed, failed, rejected)
	return &CheckoutMetrics{
		duration:       duration,
		ordersPlaced:   placed,
		checkoutFailed: failed,
		couponRejected: rejected,
	}
}

// ObserveDuration records the duration for the named checkout stage.
func (c *CheckoutMetrics) ObserveDuration(stage string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}

// IncOrderPlaced increments the successful order counter.
func (c *CheckoutMetrics) IncOrderPlaced() {
	if c == nil || c.ordersPlaced == nil {
		return
	}
	c.ordersPlaced.Inc()
}

// IncCheckoutFailed increments the failure counter for the named reason.
func (c *CheckoutMetrics) IncCheckoutFailed(reason string) {
	if c == nil || c.checkoutFailed == nil {
		return
	}
	c.checkoutFailed.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncCouponRejected increments the rejection counter for the named reason.
func (c *CheckoutMetrics) IncCouponRejected(reason string) {
	if c == nil || c.couponRejected == nil {
		return
	}
	c.couponRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
