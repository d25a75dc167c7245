package lineutil

import (
	"context"
	"fmt"
	"io"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
	"github.com/shuhanlo/tcm-linebot-go/internal/ratelimit"
)

// Sender delivers messages to LINE. The processor depends on this
// interface; tests swap in a recorder.
type Sender interface {
	Reply(ctx context.Context, replyToken string, messages ...messaging_api.MessageInterface) error
	Push(ctx context.Context, userID string, messages ...messaging_api.MessageInterface) error
}

// ContentFetcher downloads user-uploaded message content (voice clips).
type ContentFetcher interface {
	Content(ctx context.Context, messageID string) (io.ReadCloser, error)
}

// Messenger implements Sender and ContentFetcher against the Messaging API.
// All sends pass through a shared global rate limiter.
type Messenger struct {
	api     *messaging_api.MessagingApiAPI
	blob    *messaging_api.MessagingApiBlobAPI
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

// NewMessenger creates a Messenger for the given channel token.
func NewMessenger(channelToken string, limiter *ratelimit.Limiter, log *logger.Logger) (*Messenger, error) {
	api, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging api: %w", err)
	}
	blob, err := messaging_api.NewMessagingApiBlobAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("create blob api: %w", err)
	}
	return &Messenger{
		api:     api,
		blob:    blob,
		limiter: limiter,
		log:     log.WithModule("messenger"),
	}, nil
}

// Reply answers with the single-use reply token.
// LINE API limits: max 5 messages per reply.
func (m *Messenger) Reply(ctx context.Context, replyToken string, messages ...messaging_api.MessageInterface) error {
	if len(messages) == 0 {
		return nil
	}
	if len(messages) > 5 {
		messages = messages[:5]
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRateLimitExceeded, err)
	}

	_, err := m.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
	if err != nil {
		return apperrors.NewUpstreamError("line", 0, fmt.Errorf("reply: %w", err))
	}
	return nil
}

// Push sends messages without a reply token.
func (m *Messenger) Push(ctx context.Context, userID string, messages ...messaging_api.MessageInterface) error {
	if len(messages) == 0 {
		return nil
	}
	if len(messages) > 5 {
		messages = messages[:5]
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRateLimitExceeded, err)
	}

	_, err := m.api.PushMessage(&messaging_api.PushMessageRequest{
		To:       userID,
		Messages: messages,
	}, "")
	if err != nil {
		return apperrors.NewUpstreamError("line", 0, fmt.Errorf("push: %w", err))
	}
	return nil
}

// Content downloads the binary content of a user message (e.g. a voice
// clip). The caller owns the returned reader.
func (m *Messenger) Content(ctx context.Context, messageID string) (io.ReadCloser, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrRateLimitExceeded, err)
	}

	resp, err := m.blob.GetMessageContent(messageID)
	if err != nil {
		return nil, apperrors.NewUpstreamError("line", 0, fmt.Errorf("get content %s: %w", messageID, err))
	}
	return resp.Body, nil
}
