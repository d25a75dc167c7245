package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/callback", "/callback"},
		{"/healthz", "/healthz"},
		{"/audio/", "/audio/"},
		{"/audio/short", "/audio/short"},
		{"/audio/0b4dd3b2-0f3c-4b3e-9a51-5a6f3c2d1e0f", "/audio/0b4dd3b2..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizePath(tt.path), tt.path)
	}
}

func TestLoggingMiddlewareTruncatesAudioTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := logger.NewWithWriter("debug", &buf)

	router := gin.New()
	router.Use(loggingMiddleware(log))
	router.GET("/audio/:token", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	token := "0b4dd3b2-0f3c-4b3e-9a51-5a6f3c2d1e0f"
	req := httptest.NewRequest(http.MethodGet, "/audio/"+token, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	out := buf.String()
	assert.NotContains(t, out, token)
	assert.Contains(t, out, "/audio/0b4dd3b2...")
}
