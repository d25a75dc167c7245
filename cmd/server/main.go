// Package main provides the LINE bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shuhanlo/tcm-linebot-go/internal/assistant"
	"github.com/shuhanlo/tcm-linebot-go/internal/audiocache"
	"github.com/shuhanlo/tcm-linebot-go/internal/bot"
	"github.com/shuhanlo/tcm-linebot-go/internal/buildinfo"
	"github.com/shuhanlo/tcm-linebot-go/internal/config"
	"github.com/shuhanlo/tcm-linebot-go/internal/lineutil"
	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
	"github.com/shuhanlo/tcm-linebot-go/internal/metrics"
	"github.com/shuhanlo/tcm-linebot-go/internal/modules/course"
	"github.com/shuhanlo/tcm-linebot-go/internal/ratelimit"
	"github.com/shuhanlo/tcm-linebot-go/internal/report"
	"github.com/shuhanlo/tcm-linebot-go/internal/sentry"
	"github.com/shuhanlo/tcm-linebot-go/internal/session"
	"github.com/shuhanlo/tcm-linebot-go/internal/shadowing"
	"github.com/shuhanlo/tcm-linebot-go/internal/speech"
	"github.com/shuhanlo/tcm-linebot-go/internal/store"
	"github.com/shuhanlo/tcm-linebot-go/internal/webhook"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting TCM course assistant server")

	// Initialize error tracking (no-op when DSN is empty)
	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.Info("Sentry error tracking enabled")
	}
	defer sentry.Flush(2 * time.Second)

	// Create Prometheus registry with Go and process collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Connect to the state store
	st, err := store.New(cfg.RedisURL, m)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to state store")
	}
	defer func() { _ = st.Close() }()
	log.Info("State store connected")

	// Session, shadowing and audio layers on top of the store
	sessions := session.NewManager(st, log)
	shadow := shadowing.NewEngine(st, log)
	audio := audiocache.New(st, cfg.BaseURL)

	// OpenAI clients: Assistants for Q&A, Chat Completions for revision
	// and report clustering, Whisper/TTS for the speech round-trip
	assistantClient := assistant.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.AssistantID)
	poller := assistant.NewPoller(assistantClient, assistant.RealClock())
	chatClient := assistant.NewChatClient(cfg.OpenAIAPIKey, cfg.ChatModel)
	reviser := assistant.NewReviser(chatClient)
	speechService := speech.NewService(cfg.OpenAIAPIKey, m)

	// Outbound LINE sender behind the global rate limit
	globalLimiter := ratelimit.New(cfg.GlobalRateLimitRPS, cfg.GlobalRateLimitRPS)
	messenger, err := lineutil.NewMessenger(cfg.LineChannelToken, globalLimiter, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create LINE messenger")
	}

	// Registered handlers answer course statics before anything reaches
	// the assistant
	botRegistry := bot.NewRegistry()
	botRegistry.Register(course.NewHandler(log))

	processor := bot.NewProcessor(bot.ProcessorConfig{
		Registry: botRegistry,
		Sessions: sessions,
		Shadow:   shadow,
		Speech:   speechService,
		Audio:    audio,
		Client:   assistantClient,
		Poller:   poller,
		Reviser:  reviser,
		Sender:   messenger,
		Content:  messenger,
		Store:    st,
		Logger:   log,
		Metrics:  m,
	})

	// Per-user inbound rate limiter
	userLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "user",
		Burst:         cfg.UserRateLimitBurst,
		RefillRate:    cfg.UserRateLimitRefillPerSec,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})
	defer userLimiter.Stop()

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		Processor:     processor,
		UserLimiter:   userLimiter,
		Metrics:       m,
		Logger:        log,
	})
	log.Info("Webhook handler created")

	// Weekly report pipeline. The cron endpoint answers 401 until the
	// secret is configured; Run itself reports missing mail settings.
	mailer := report.NewSMTPMailer(report.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.ReportFrom,
		To:       cfg.ReportTo,
	})
	reportService := report.NewService(report.ServiceConfig{
		Store:     st,
		Completer: chatClient,
		Mailer:    mailer,
		Recipient: cfg.ReportTo,
		Logger:    log,
	})
	cronHandler := report.NewCronHandler(reportService, cfg.CronSecret, m, log)
	if cfg.ReportEnabled() {
		log.Info("Weekly report endpoint enabled")
	} else {
		log.Info("Weekly report not fully configured, endpoint disabled")
	}

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))
	if sentry.IsEnabled() {
		router.Use(sentryMiddleware())
	}

	// Setup routes
	setupRoutes(router, webhookHandler, cronHandler, st, audio, m, registry)

	// Create HTTP server with timeouts tuned for LINE webhook handling
	// See internal/config/timeouts.go for detailed explanations
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.WebhookHTTPRead,
		WriteTimeout: config.WebhookHTTPWrite,
		IdleTimeout:  config.WebhookHTTPIdle,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new requests first
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Wait for in-flight webhook event goroutines
	if err := webhookHandler.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Timeout waiting for webhook events to finish")
	}

	log.Info("Server stopped")
}
