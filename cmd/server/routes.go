// Package main provides the LINE bot server entry point.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shuhanlo/tcm-linebot-go/internal/audiocache"
	"github.com/shuhanlo/tcm-linebot-go/internal/metrics"
	"github.com/shuhanlo/tcm-linebot-go/internal/report"
	"github.com/shuhanlo/tcm-linebot-go/internal/store"
	"github.com/shuhanlo/tcm-linebot-go/internal/webhook"
)

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, webhookHandler *webhook.Handler, cronHandler *report.CronHandler, st *store.Store, audio *audiocache.Cache, m *metrics.Metrics, registry *prometheus.Registry) {
	// Root endpoint
	rootHandler := func(c *gin.Context) {
		c.String(http.StatusOK, "TCM course assistant is running")
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Health check endpoints
	// Liveness Probe - checks if the application is alive (minimal check)
	// This should NEVER check dependencies - only that the process is running
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness Probe - checks if the application is ready to serve traffic
	readyHandler := func(c *gin.Context) {
		if err := st.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
			"store":  "connected",
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// LINE webhook callback endpoint
	router.POST("/callback", webhookHandler.Handle)

	// Synthesized audio artifacts. The token is the sole authorization,
	// expired and unknown tokens both answer 404.
	router.GET("/audio/:token", func(c *gin.Context) {
		payload, err := audio.Get(c.Request.Context(), c.Param("token"))
		if err != nil {
			m.RecordAudioServed("miss")
			c.Status(http.StatusNotFound)
			return
		}
		m.RecordAudioServed("hit")
		c.Data(http.StatusOK, "audio/mpeg", payload)
	})

	// Weekly report trigger, guarded by the cron secret
	router.GET("/api/cron/weekly", cronHandler.Handle)
	router.POST("/api/cron/weekly", cronHandler.Handle)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}
