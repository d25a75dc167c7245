// Package lineutil provides utility functions for building LINE messages
// and actions, plus the rate-limited Messenger used for all outbound sends.
package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// QuickReplyItem represents an item in a quick reply.
type QuickReplyItem struct {
	ImageURL string
	Action   messaging_api.ActionInterface
}

// Action is an alias for the LINE SDK action interface for convenience.
type Action = messaging_api.ActionInterface

// NewTextMessage creates a simple text message.
// LINE API limits: max 5000 characters per text message
func NewTextMessage(text string) *messaging_api.TextMessage {
	if len(text) > 5000 {
		text = TruncateRunes(text, 4997) + "..."
	}

	return &messaging_api.TextMessage{
		Text: text,
	}
}

// NewAudioMessage creates an audio message pointing at an HTTPS URL.
// durationMS is the playback length shown by the LINE client.
func NewAudioMessage(url string, durationMS int64) *messaging_api.AudioMessage {
	return &messaging_api.AudioMessage{
		OriginalContentUrl: url,
		Duration:           durationMS,
	}
}

// NewFlexMessage creates a flex message with the given alt text and flex container.
func NewFlexMessage(altText string, contents messaging_api.FlexContainerInterface) *messaging_api.FlexMessage {
	if len(altText) > 400 {
		altText = TruncateRunes(altText, 397) + "..."
	}
	return &messaging_api.FlexMessage{
		AltText:  altText,
		Contents: contents,
	}
}

// NewQuickReply creates a quick reply component.
// LINE API limits: max 13 items
func NewQuickReply(items []QuickReplyItem) *messaging_api.QuickReply {
	if len(items) > 13 {
		items = items[:13]
	}

	quickReplyItems := make([]messaging_api.QuickReplyItem, len(items))
	for i, item := range items {
		qrItem := messaging_api.QuickReplyItem{
			Action: item.Action,
		}
		if item.ImageURL != "" {
			qrItem.ImageUrl = item.ImageURL
		}
		quickReplyItems[i] = qrItem
	}

	return &messaging_api.QuickReply{
		Items: quickReplyItems,
	}
}

// NewMessageAction creates a message action that sends a message when clicked.
func NewMessageAction(label, text string) Action {
	return &messaging_api.MessageAction{
		Label: label,
		Text:  text,
	}
}

// NewPostbackAction creates a postback action that sends data to the bot when clicked.
func NewPostbackAction(label, data string) Action {
	return &messaging_api.PostbackAction{
		Label: label,
		Data:  data,
	}
}

// NewTextMessageWithQuickReply creates a text message with quick reply items.
func NewTextMessageWithQuickReply(text string, items ...QuickReplyItem) *messaging_api.TextMessage {
	msg := NewTextMessage(text)
	if len(items) > 0 {
		msg.QuickReply = NewQuickReply(items)
	}
	return msg
}

// AddQuickReplyToMessages attaches quick reply items to the last message in a slice.
// If the slice is empty or the last message doesn't support quick replies, it's a no-op.
func AddQuickReplyToMessages(messages []messaging_api.MessageInterface, items ...QuickReplyItem) {
	if len(messages) == 0 || len(items) == 0 {
		return
	}
	lastMsg := messages[len(messages)-1]
	qr := NewQuickReply(items)
	switch m := lastMsg.(type) {
	case *messaging_api.TextMessage:
		m.QuickReply = qr
	case *messaging_api.FlexMessage:
		m.QuickReply = qr
	case *messaging_api.TemplateMessage:
		m.QuickReply = qr
	case *messaging_api.AudioMessage:
		m.QuickReply = qr
	}
}

// TruncateRunes truncates a string to at most n runes without splitting a
// multi-byte character.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
