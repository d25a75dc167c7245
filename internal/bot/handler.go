// Package bot routes LINE events by per-user conversational mode and
// dispatches them to handlers or the AI delegation pipeline.
package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Handler is implemented by keyword-driven bot modules (course logistics).
// Handlers answer synchronously from static data; anything that needs an
// upstream call goes through the Processor's delegation path instead.
type Handler interface {
	// Name identifies the module in logs and postback routing.
	Name() string

	// CanHandle reports whether this handler recognizes the text message.
	// The mode resolved for the event is available via ctxutil.GetMode.
	CanHandle(ctx context.Context, text string) bool

	// HandleMessage builds the reply for a recognized text message.
	// Returns at most 5 messages per the LINE reply limit.
	HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface

	// PostbackActions lists the postback action values this handler owns.
	PostbackActions() []string

	// HandlePostback builds the reply for an owned postback action.
	HandlePostback(ctx context.Context, pb PostbackData) []messaging_api.MessageInterface
}
