package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Confirmation("completed")
	m.Confirmation("completed")
	m.Confirmation("date_conflict")
	m.Reconciled("failed")
	m.WebhookEvent("payment_intent.succeeded")
	m.ObserveHTTP("/api/payments/confirm", "POST", 200, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.confirmations.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.confirmations.WithLabelValues("date_conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciled.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/payments/confirm", "POST", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Confirmation("completed")
		m.IntentIssued("NGN", "ok")
		m.WebhookEvent("x")
		m.Reconciled("failed")
		m.SweepFinished(time.Second)
		m.CardOperation("add", "ok")
		m.ObserveHTTP("/", "GET", 200, time.Millisecond)
	})
}
