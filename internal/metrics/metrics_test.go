package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllSeries(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordWebhook("text", "success", 0.1)
	m.RecordAssistantRun("tcm", "completed", 2.5, 3)
	m.RecordStoreOp("get", "miss")
	m.RecordSpeech("synthesize", "success")
	m.RecordSpeechDedup()
	m.RecordAudioServed("hit")
	m.RecordShadowingAttempt("passed")
	m.RecordHTTPError("invalid_signature", "webhook")
	m.RecordRateLimiterDrop("user")

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCountersIncrement(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordAudioServed("miss")
	m.RecordAudioServed("miss")
	m.RecordAudioServed("hit")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.AudioServedTotal.WithLabelValues("miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AudioServedTotal.WithLabelValues("hit")))
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)

	assert.Panics(t, func() {
		New(registry)
	})
}
