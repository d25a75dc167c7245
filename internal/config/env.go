// Package config defines environment variable keys for configuration.
package config

//nolint:gosec // Environment variable keys are not credentials.
const (
	// Core (Required)
	EnvLineChannelAccessToken = "TCM_LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "TCM_LINE_CHANNEL_SECRET"
	EnvOpenAIAPIKey           = "TCM_OPENAI_API_KEY"
	EnvAssistantID            = "TCM_ASSISTANT_ID"

	// Server
	EnvPort            = "TCM_PORT"
	EnvBaseURL         = "TCM_BASE_URL"
	EnvLogLevel        = "TCM_LOG_LEVEL"
	EnvShutdownTimeout = "TCM_SHUTDOWN_TIMEOUT"

	// State Store
	EnvRedisURL = "TCM_REDIS_URL"

	// OpenAI
	EnvChatModel = "TCM_CHAT_MODEL"

	// Weekly Report
	EnvCronSecret   = "TCM_CRON_SECRET"
	EnvSMTPHost     = "TCM_SMTP_HOST"
	EnvSMTPPort     = "TCM_SMTP_PORT"
	EnvSMTPUsername = "TCM_SMTP_USERNAME"
	EnvSMTPPassword = "TCM_SMTP_PASSWORD"
	EnvReportFrom   = "TCM_REPORT_FROM"
	EnvReportTo     = "TCM_REPORT_TO"

	// Rate Limits
	EnvGlobalRateRPS  = "TCM_GLOBAL_RATE_RPS"
	EnvUserRateBurst  = "TCM_USER_RATE_BURST"
	EnvUserRateRefill = "TCM_USER_RATE_REFILL"

	// Sentry Feature
	EnvSentryDSN         = "TCM_SENTRY_DSN"
	EnvSentryEnvironment = "TCM_SENTRY_ENVIRONMENT"
)
