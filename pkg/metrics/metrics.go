package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the service, registered on
// their own registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Booking metrics
	CheckoutSessions *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	SlotClaims       *prometheus.CounterVec
	DiscountsApplied prometheus.Counter
	Notifications    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		CheckoutSessions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_sessions_total",
				Help: "Checkout session requests by outcome",
			},
			[]string{"outcome"}, // created, rejected, failed
		),
		WebhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_webhook_events_total",
				Help: "Payment webhook deliveries by outcome",
			},
			[]string{"outcome"}, // committed, replayed, ignored, invalid_signature, integrity, slot_conflict, discount_exhausted, error
		),
		SlotClaims: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slot_claims_total",
				Help: "Slot claim attempts by result",
			},
			[]string{"result"}, // claimed, conflict
		),
		DiscountsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "discounts_applied_total",
			Help: "Discount redemptions recorded by committed bookings",
		}),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_notifications_total",
				Help: "Booking confirmation notifications by result",
			},
			[]string{"result"}, // sent, failed
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count and latency labelled by the chi route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, code).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) RecordCheckout(outcome string) {
	m.CheckoutSessions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordWebhook(outcome string) {
	m.WebhookEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSlotClaim(claimed bool) {
	result := "conflict"
	if claimed {
		result = "claimed"
	}
	m.SlotClaims.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordDiscountApplied() {
	m.DiscountsApplied.Inc()
}

func (m *Metrics) RecordNotification(sent bool) {
	result := "failed"
	if sent {
		result = "sent"
	}
	m.Notifications.WithLabelValues(result).Inc()
}
