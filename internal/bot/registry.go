package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Registry holds the keyword handlers in registration order. The first
// handler whose CanHandle returns true wins.
type Registry struct {
	handlers []Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make([]Handler, 0)}
}

// Register appends a handler. Registration order is dispatch priority.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// DispatchMessage routes a text message to the first matching handler.
// Returns nil when no handler recognizes the text.
func (r *Registry) DispatchMessage(ctx context.Context, text string) []messaging_api.MessageInterface {
	for _, h := range r.handlers {
		if h.CanHandle(ctx, text) {
			return h.HandleMessage(ctx, text)
		}
	}
	return nil
}

// DispatchPostback routes a decoded postback to the handler owning its
// action value. Returns nil when no handler claims it.
func (r *Registry) DispatchPostback(ctx context.Context, pb PostbackData) []messaging_api.MessageInterface {
	if pb.Key != "action" {
		return nil
	}
	for _, h := range r.handlers {
		for _, action := range h.PostbackActions() {
			if action == pb.Value {
				return h.HandlePostback(ctx, pb)
			}
		}
	}
	return nil
}
