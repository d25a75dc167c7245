// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// server mode, external service credentials, and rate limits.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// OpenAI Configuration
	OpenAIAPIKey string
	AssistantID  string // OpenAI Assistants API assistant backing the course Q&A modes
	ChatModel    string // Chat Completions model for writing revision and report clustering

	// State Store Configuration
	RedisURL string // redis:// or rediss:// connection URL

	// Server Configuration
	Port            string
	BaseURL         string // Public base URL used to build audio artifact links
	LogLevel        string
	ShutdownTimeout time.Duration

	// Weekly Report Configuration
	CronSecret   string // Bearer token guarding /api/cron/weekly (empty = endpoint disabled)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	ReportFrom   string
	ReportTo     string

	// Rate Limits (Token Bucket Algorithm)
	UserRateLimitBurst        float64 // Maximum burst tokens per user
	UserRateLimitRefillPerSec float64 // Tokens refilled per second
	GlobalRateLimitRPS        float64 // Global outbound LINE send limit in requests per second

	// Sentry Configuration
	SentryDSN         string
	SentryEnvironment string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),

		OpenAIAPIKey: getEnv(EnvOpenAIAPIKey, ""),
		AssistantID:  getEnv(EnvAssistantID, ""),
		ChatModel:    getEnv(EnvChatModel, "gpt-4o-mini"),

		RedisURL: getEnv(EnvRedisURL, "redis://localhost:6379"),

		Port:            getEnv(EnvPort, "10000"),
		BaseURL:         getEnv(EnvBaseURL, ""),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		CronSecret:   getEnv(EnvCronSecret, ""),
		SMTPHost:     getEnv(EnvSMTPHost, ""),
		SMTPPort:     getIntEnv(EnvSMTPPort, 587),
		SMTPUsername: getEnv(EnvSMTPUsername, ""),
		SMTPPassword: getEnv(EnvSMTPPassword, ""),
		ReportFrom:   getEnv(EnvReportFrom, ""),
		ReportTo:     getEnv(EnvReportTo, ""),

		UserRateLimitBurst:        getFloatEnv(EnvUserRateBurst, 15.0),
		UserRateLimitRefillPerSec: getFloatEnv(EnvUserRateRefill, 0.1), // 1 per 10s
		GlobalRateLimitRPS:        getFloatEnv(EnvGlobalRateRPS, 100.0),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.LineChannelToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvLineChannelAccessToken))
	}
	if c.LineChannelSecret == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvLineChannelSecret))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvOpenAIAPIKey))
	}
	if c.AssistantID == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvAssistantID))
	}
	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	}
	if c.RedisURL == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvRedisURL))
	} else if _, err := url.Parse(c.RedisURL); err != nil {
		errs = append(errs, fmt.Errorf("%s is not a valid URL: %w", EnvRedisURL, err))
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("%s must be a valid port, got %d", EnvSMTPPort, c.SMTPPort))
	}
	if c.UserRateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvUserRateBurst, c.UserRateLimitBurst))
	}
	if c.UserRateLimitRefillPerSec <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvUserRateRefill, c.UserRateLimitRefillPerSec))
	}
	if c.GlobalRateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvGlobalRateRPS, c.GlobalRateLimitRPS))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ReportEnabled returns true if the weekly report mailer is fully configured.
func (c *Config) ReportEnabled() bool {
	return c.CronSecret != "" && c.SMTPHost != "" && c.ReportFrom != "" && c.ReportTo != ""
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
