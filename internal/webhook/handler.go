// Package webhook receives signature-verified LINE webhook events and
// hands each one to the processor in its own goroutine.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/shuhanlo/tcm-linebot-go/internal/config"
	"github.com/shuhanlo/tcm-linebot-go/internal/ctxutil"
	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
	"github.com/shuhanlo/tcm-linebot-go/internal/metrics"
	"github.com/shuhanlo/tcm-linebot-go/internal/ratelimit"
)

// maxEventsPerWebhook caps one webhook batch, per the LINE API spec.
const maxEventsPerWebhook = 100

// Processor is the event router behind the webhook. Implemented by
// bot.Processor; tests substitute a recorder.
type Processor interface {
	HandleText(ctx context.Context, userID, replyToken, text string) error
	HandleAudio(ctx context.Context, userID, replyToken, messageID string) error
	HandlePostback(ctx context.Context, userID, replyToken, data string) error
	HandleFollow(ctx context.Context, userID, replyToken string) error
}

// Handler handles LINE webhook events.
type Handler struct {
	channelSecret string
	processor     Processor
	userLimiter   *ratelimit.KeyedLimiter
	metrics       *metrics.Metrics
	log           *logger.Logger
	wg            sync.WaitGroup
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	ChannelSecret string
	Processor     Processor
	UserLimiter   *ratelimit.KeyedLimiter
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		channelSecret: cfg.ChannelSecret,
		processor:     cfg.Processor,
		userLimiter:   cfg.UserLimiter,
		metrics:       cfg.Metrics,
		log:           cfg.Logger.WithModule("webhook"),
	}
}

// Handle is the gin handler for POST /callback. The 200 is written as soon
// as the batch parses; events are processed afterwards, each in its own
// goroutine so one failing event never touches its siblings.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.log.Warn("invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.log.WithError(err).Error("webhook parse failed")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusOK)

	events := cb.Events
	if len(events) > maxEventsPerWebhook {
		h.log.WithField("event_count", len(events)).Warn("webhook batch truncated")
		events = events[:maxEventsPerWebhook]
	}

	for _, event := range events {
		event := event
		h.wg.Go(func() {
			h.processEvent(event)
		})
	}
}

// processEvent routes one event with panic isolation and a per-event
// processing deadline.
func (h *Handler) processEvent(event webhook.EventInterface) {
	defer func() {
		if r := recover(); r != nil {
			h.log.WithField("panic", r).Error("panic while processing event")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), config.WebhookProcessing)
	defer cancel()

	eventID := extractEventID(event)
	if eventID != "" {
		ctx = ctxutil.WithRequestID(ctx, eventID)
	}
	log := h.log
	if eventID != "" {
		log = log.WithRequestID(eventID)
	}

	userID := eventUserID(event)
	if h.userLimiter != nil && !h.userLimiter.Allow(userID) {
		log.WithField("user_id", shortUserID(userID)).Warn("user rate limit exceeded, event dropped")
		return
	}

	start := time.Now()
	var (
		eventType string
		err       error
	)

	switch e := event.(type) {
	case webhook.MessageEvent:
		switch msg := e.Message.(type) {
		case webhook.TextMessageContent:
			eventType = "message_text"
			err = h.processor.HandleText(ctx, userID, e.ReplyToken, msg.Text)
		case webhook.AudioMessageContent:
			eventType = "message_audio"
			err = h.processor.HandleAudio(ctx, userID, e.ReplyToken, msg.Id)
		default:
			log.WithField("message_type", fmt.Sprintf("%T", msg)).Debug("unsupported message type")
			return
		}
	case webhook.PostbackEvent:
		eventType = "postback"
		err = h.processor.HandlePostback(ctx, userID, e.ReplyToken, e.Postback.Data)
	case webhook.FollowEvent:
		eventType = "follow"
		err = h.processor.HandleFollow(ctx, userID, e.ReplyToken)
	default:
		log.WithField("event_type", fmt.Sprintf("%T", e)).Debug("unsupported event type")
		return
	}

	status := "success"
	if err != nil {
		status = "error"
		log.WithError(err).WithField("event_type", eventType).Error("event processing failed")
	}
	h.metrics.RecordWebhook(eventType, status, time.Since(start).Seconds())
}

// Shutdown waits for in-flight event goroutines to finish or the context
// to expire.
func (h *Handler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func extractEventID(event webhook.EventInterface) string {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return e.WebhookEventId
	case webhook.PostbackEvent:
		return e.WebhookEventId
	case webhook.FollowEvent:
		return e.WebhookEventId
	default:
		return ""
	}
}

// eventUserID extracts the sending user from any chat type.
func eventUserID(event webhook.EventInterface) string {
	var source webhook.SourceInterface
	switch e := event.(type) {
	case webhook.MessageEvent:
		source = e.Source
	case webhook.PostbackEvent:
		source = e.Source
	case webhook.FollowEvent:
		source = e.Source
	default:
		return ""
	}

	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	default:
		return ""
	}
}

// shortUserID truncates a user id for logging.
func shortUserID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}
