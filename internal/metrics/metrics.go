package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// Assistant run metrics
	AssistantRunsTotal      *prometheus.CounterVec
	AssistantRunSeconds     *prometheus.HistogramVec
	AssistantPollIterations prometheus.Histogram

	// State store metrics
	StoreOpsTotal *prometheus.CounterVec

	// Speech metrics
	SpeechRequestsTotal *prometheus.CounterVec
	SpeechDedupTotal    prometheus.Counter

	// Audio artifact metrics
	AudioServedTotal *prometheus.CounterVec

	// Shadowing metrics
	ShadowingAttemptsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Webhook metrics
		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tcmbot_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 15},
			},
			[]string{"event_type"}, // event_type: text, audio, postback
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcmbot_webhook_requests_total",
				Help: "Total number of webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error, dropped
		),

		// Assistant run metrics
		AssistantRunsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcmbot_assistant_runs_total",
				Help: "Total number of assistant runs by terminal state",
			},
			[]string{"state"}, // state: completed, failed, timed_out
		),

		AssistantRunSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tcmbot_assistant_run_duration_seconds",
				Help:    "Assistant run wall-clock duration in seconds by mode",
				Buckets: []float64{0.5, 1, 2, 3, 5, 8, 9}, // Matches the 8.5s polling budget
			},
			[]string{"mode"}, // mode: tcm, speaking, writing
		),

		AssistantPollIterations: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tcmbot_assistant_poll_iterations",
				Help:    "Number of status fetches per assistant run",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			},
		),

		// State store metrics
		StoreOpsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcmbot_store_ops_total",
				Help: "Total number of state store operations by operation and status",
			},
			[]string{"operation", "status"}, // operation: get, set, delete, lpush; status: success, miss, error
		),

		// Speech metrics
		SpeechRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcmbot_speech_requests_total",
				Help: "Total number of speech requests by direction and status",
			},
			[]string{"direction", "status"}, // direction: transcribe, synthesize
		),

		SpeechDedupTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "tcmbot_speech_dedup_total",
				Help: "Total number of TTS requests deduplicated by singleflight",
			},
		),

		// Audio artifact metrics
		AudioServedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcmbot_audio_served_total",
				Help: "Total number of audio artifact fetches by status",
			},
			[]string{"status"}, // status: hit, miss
		),

		// Shadowing metrics
		ShadowingAttemptsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcmbot_shadowing_attempts_total",
				Help: "Total number of shadowing attempts by outcome",
			},
			[]string{"outcome"}, // outcome: passed, retry
		),

		// HTTP metrics
		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcmbot_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: invalid_signature, unauthorized, etc.
		),

		// Rate limiter metrics
		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tcmbot_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user, global
		),
	}

	return m
}

// RecordWebhook records a webhook event
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordAssistantRun records a finished assistant run
func (m *Metrics) RecordAssistantRun(mode, state string, duration float64, iterations int) {
	m.AssistantRunsTotal.WithLabelValues(state).Inc()
	m.AssistantRunSeconds.WithLabelValues(mode).Observe(duration)
	m.AssistantPollIterations.Observe(float64(iterations))
}

// RecordStoreOp records a state store operation
func (m *Metrics) RecordStoreOp(operation, status string) {
	m.StoreOpsTotal.WithLabelValues(operation, status).Inc()
}

// RecordSpeech records a speech request
func (m *Metrics) RecordSpeech(direction, status string) {
	m.SpeechRequestsTotal.WithLabelValues(direction, status).Inc()
}

// RecordSpeechDedup records a deduplicated TTS request
func (m *Metrics) RecordSpeechDedup() {
	m.SpeechDedupTotal.Inc()
}

// RecordAudioServed records an audio artifact fetch
func (m *Metrics) RecordAudioServed(status string) {
	m.AudioServedTotal.WithLabelValues(status).Inc()
}

// RecordShadowingAttempt records a scored shadowing attempt
func (m *Metrics) RecordShadowingAttempt(outcome string) {
	m.ShadowingAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}
