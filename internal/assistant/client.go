package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
)

// Client is the Assistants API surface the delegation flow needs.
// The production implementation talks to OpenAI; tests swap in fakes.
type Client interface {
	// CreateThread creates a new conversation thread and returns its ID.
	CreateThread(ctx context.Context) (string, error)

	// AddMessage appends a user message to the thread.
	AddMessage(ctx context.Context, threadID, text string) error

	// StartRun starts an assistant run on the thread and returns the run ID
	// and its initial status.
	StartRun(ctx context.Context, threadID string) (string, Status, error)

	// RunStatus fetches the current status of a run.
	RunStatus(ctx context.Context, threadID, runID string) (Status, error)

	// LatestAssistantMessage returns the text of the newest assistant
	// message on the thread.
	LatestAssistantMessage(ctx context.Context, threadID string) (string, error)
}

// OpenAIClient implements Client against the OpenAI Assistants API.
type OpenAIClient struct {
	client      openai.Client
	assistantID string
}

// NewOpenAIClient creates an assistant client bound to one assistant ID.
func NewOpenAIClient(apiKey, assistantID string) *OpenAIClient {
	return &OpenAIClient{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		assistantID: assistantID,
	}
}

// CreateThread creates a new conversation thread.
func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", apperrors.NewUpstreamError("openai", 0, fmt.Errorf("create thread: %w", err))
	}
	return thread.ID, nil
}

// AddMessage appends a user message to the thread.
func (c *OpenAIClient) AddMessage(ctx context.Context, threadID, text string) error {
	_, err := c.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return apperrors.NewUpstreamError("openai", 0, fmt.Errorf("add message: %w", err))
	}
	return nil
}

// StartRun starts an assistant run on the thread.
func (c *OpenAIClient) StartRun(ctx context.Context, threadID string) (string, Status, error) {
	run, err := c.client.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: c.assistantID,
	})
	if err != nil {
		return "", "", apperrors.NewUpstreamError("openai", 0, fmt.Errorf("start run: %w", err))
	}
	return run.ID, Status(run.Status), nil
}

// RunStatus fetches the current status of a run.
func (c *OpenAIClient) RunStatus(ctx context.Context, threadID, runID string) (Status, error) {
	run, err := c.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return "", apperrors.NewUpstreamError("openai", 0, fmt.Errorf("get run: %w", err))
	}
	return Status(run.Status), nil
}

// LatestAssistantMessage returns the newest assistant message text.
func (c *OpenAIClient) LatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	page, err := c.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Limit: openai.Int(1),
		Order: openai.BetaThreadMessageListParamsOrderDesc,
	})
	if err != nil {
		return "", apperrors.NewUpstreamError("openai", 0, fmt.Errorf("list messages: %w", err))
	}
	if len(page.Data) == 0 {
		return "", errors.New("thread has no messages")
	}

	var parts []string
	for _, content := range page.Data[0].Content {
		if content.Type == "text" {
			parts = append(parts, content.Text.Value)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", errors.New("assistant message has no text content")
	}
	return text, nil
}
