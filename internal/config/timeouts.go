// Package config provides centralized timeout constants for the application.
//
// These values are tuned around two external constraints:
//   - LINE Messaging API timing (reply tokens are single-use and short-lived,
//     webhooks expect a fast 200 OK)
//   - OpenAI Assistants API run latency (most runs finish in 2-6s, but a
//     run can stay queued well past that)
//
// The webhook handler acknowledges immediately and does the slow work on a
// detached context, so the assistant budget below bounds user-perceived
// latency for pushed answers, not the HTTP exchange.
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing is the timeout for processing a single webhook event.
	// Covers state store round-trips, one assistant run, speech synthesis
	// and the final push.
	WebhookProcessing = 60 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Should be short since LINE sends small JSON payloads.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 30 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Assistant run polling
const (
	// RunPollInterval is the delay between consecutive run status fetches.
	RunPollInterval = 1 * time.Second

	// RunPollBudget is the wall-clock budget for one assistant run.
	// A run still queued or in progress past this point is abandoned and
	// reported as a timeout; it is not cancelled upstream.
	RunPollBudget = 8500 * time.Millisecond
)

// Speech timeouts
const (
	// TranscriptionTimeout bounds one Whisper transcription call.
	TranscriptionTimeout = 30 * time.Second

	// SynthesisTimeout bounds one TTS synthesis call.
	SynthesisTimeout = 30 * time.Second
)

// Audio artifacts
const (
	// AudioArtifactTTL is how long synthesized audio stays fetchable.
	// LINE clients download attached audio promptly, so ten minutes gives
	// generous headroom without accumulating payloads in the store.
	AudioArtifactTTL = 600 * time.Second
)

// State store timeouts
const (
	// StoreDial is the timeout for establishing the Redis connection.
	StoreDial = 5 * time.Second

	// StoreOp bounds a single Redis command.
	StoreOp = 3 * time.Second
)

// Weekly report
const (
	// ReportClusterTimeout bounds one concept-clustering completion call.
	ReportClusterTimeout = 30 * time.Second

	// ReportMailTimeout bounds the SMTP delivery of one report.
	ReportMailTimeout = 30 * time.Second
)

// Background intervals
const (
	// RateLimiterCleanupInterval is how often inactive user rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight webhook goroutines to complete before forceful termination.
	GracefulShutdown = 30 * time.Second
)
