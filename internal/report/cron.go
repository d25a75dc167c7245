package report

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
	"github.com/shuhanlo/tcm-linebot-go/internal/metrics"
)

// CronHandler guards the weekly report trigger endpoint.
type CronHandler struct {
	service *Service
	secret  string
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewCronHandler creates the cron endpoint handler. An empty secret
// disables the endpoint entirely.
func NewCronHandler(service *Service, secret string, m *metrics.Metrics, log *logger.Logger) *CronHandler {
	return &CronHandler{
		service: service,
		secret:  secret,
		metrics: m,
		log:     log.WithModule("report"),
	}
}

// Handle triggers the weekly report. The caller authenticates with the
// cron secret, either as the raw Authorization header value, as a
// bearer token, or as a secret query parameter.
func (h *CronHandler) Handle(c *gin.Context) {
	if h.secret == "" || !h.authorized(c) {
		h.metrics.RecordHTTPError("unauthorized", "report")
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "unauthorized",
		})
		return
	}

	ok, message := h.service.Run(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"success": ok,
		"message": message,
	})
}

func (h *CronHandler) authorized(c *gin.Context) bool {
	provided := c.GetHeader("Authorization")
	if provided == "" {
		provided = c.Query("secret")
	}
	provided = strings.TrimPrefix(provided, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) == 1
}
