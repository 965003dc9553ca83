package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request counts and latency for the storefront surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Requests handled, by method, route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{requests: requests, duration: duration}
}

// Observe records one handled request.
func (h *HTTPMetrics) Observe(method, route, status string, elapsed time.Duration) {
	if h == nil || h.requests == nil {
		return
	}
	h.requests.WithLabelValues(method, route, status).Inc()
	h.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CartMetrics tracks the persisted cart store.
type CartMetrics struct {
	persistFailures prometheus.Counter
	rehydrations    prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Background cart saves that failed.",
	})
	rehydrations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_rehydrations_total",
		Help: "Cart stores rehydrated from durable storage.",
	})
	reg.MustRegister(persistFailures, rehydrations)
	return &CartMetrics{persistFailures: persistFailures, rehydrations: rehydrations}
}

// IncPersistFailure counts a failed background save.
func (c *CartMetrics) IncPersistFailure() {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.Inc()
}

// IncRehydration counts a completed rehydration.
func (c *CartMetrics) IncRehydration() {
	if c == nil || c.rehydrations == nil {
		return
	}
	c.rehydrations.Inc()
}

// CheckoutMetrics tracks order submissions by outcome.
type CheckoutMetrics struct {
	submissions *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout submissions, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(submissions)
	return &CheckoutMetrics{submissions: submissions}
}

// IncSubmission counts a submission with the given outcome label.
func (c *CheckoutMetrics) IncSubmission(outcome string) {
	if c == nil || c.submissions == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	c.submissions.WithLabelValues(outcome).Inc()
}
