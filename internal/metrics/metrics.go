package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	intents        *prometheus.CounterVec
	confirmations  *prometheus.CounterVec
	webhookEvents  *prometheus.CounterVec
	reconciled     *prometheus.CounterVec
	sweepDuration  prometheus.Histogram
	cardOperations *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shortlets",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shortlets",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shortlets",
			Subsystem: "payments",
			Name:      "intents_total",
			Help:      "Payment intents issued, by currency and outcome.",
		}, []string{"currency", "outcome"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shortlets",
			Subsystem: "payments",
			Name:      "confirmations_total",
			Help:      "Payment confirmations by outcome.",
		}, []string{"outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shortlets",
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Verified webhook events by type.",
		}, []string{"type"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shortlets",
			Subsystem: "reconciler",
			Name:      "payments_total",
			Help:      "Stale payments processed by the reconciler, by result.",
		}, []string{"result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shortlets",
			Subsystem: "reconciler",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a reconciliation sweep.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		cardOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shortlets",
			Subsystem: "cards",
			Name:      "operations_total",
			Help:      "Card vault operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.httpRequests,
			m.httpDuration,
			m.intents,
			m.confirmations,
			m.webhookEvents,
			m.reconciled,
			m.sweepDuration,
			m.cardOperations,
		)
	}
	return m
}

func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) IntentIssued(currency, outcome string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(currency, outcome).Inc()
}

func (m *Metrics) Confirmation(outcome string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) WebhookEvent(eventType string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType).Inc()
}

func (m *Metrics) Reconciled(result string) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues(result).Inc()
}

func (m *Metrics) SweepFinished(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) CardOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.cardOperations.WithLabelValues(operation, outcome).Inc()
}
