package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
)

// Completer produces one completion from a system and user prompt.
// Both the writing reviser and the weekly report clusterer run on this.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// ChatClient implements Completer on the OpenAI Chat Completions API.
type ChatClient struct {
	client openai.Client
	model  string
}

// NewChatClient creates a chat client for the given model.
func NewChatClient(apiKey, model string) *ChatClient {
	return &ChatClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete runs one chat completion and returns the trimmed message text.
func (c *ChatClient) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return "", apperrors.NewUpstreamError("openai", 0, fmt.Errorf("chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewUpstreamError("openai", 0, fmt.Errorf("chat completion returned no choices"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// reviseUserPromptLimit caps pasted paragraphs before they reach the model.
const reviseUserPromptLimit = 1500

// Reviser implements the writing revision loop.
type Reviser struct {
	completer Completer
}

// NewReviser creates a reviser on top of a completer.
func NewReviser(c Completer) *Reviser {
	return &Reviser{completer: c}
}

// Revise analyzes a pasted sentence or paragraph and returns coaching
// feedback. An empty model reply falls back to a friendly acknowledgment.
func (r *Reviser) Revise(ctx context.Context, text string) (string, error) {
	runes := []rune(text)
	if len(runes) > reviseUserPromptLimit {
		runes = runes[:reviseUserPromptLimit]
	}

	reply, err := r.completer.Complete(ctx, WritingInstructions,
		fmt.Sprintf("請分析以下句子或段落：\n\n%s", string(runes)), 800)
	if err != nil {
		return "", err
	}
	if reply == "" {
		reply = "已收到你的練習！歡迎繼續貼上其他句子～"
	}
	return reply, nil
}
