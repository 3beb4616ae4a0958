// Package llm wraps the text-completion oracle used for free-text
// understanding and reply generation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Message is a minimal chat message passed to the oracle. Role must be one
// of "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Client is the oracle contract consumed by the intake workflow. The
// oracle may fail or time out; callers are expected to degrade gracefully
// rather than surface errors to the visitor.
type Client interface {
	// Complete sends the message history and returns the raw completion text.
	Complete(ctx context.Context, messages []Message, opts CompleteOptions) (string, error)
}

// CompleteOptions tunes a single completion call.
type CompleteOptions struct {
	Model       string
	Temperature float32
}

// OpenAIClient calls the OpenAI chat completion API.
type OpenAIClient struct {
	client  *openai.Client
	timeout time.Duration
	retry   RetryConfig
}

// NewOpenAIClient constructs an oracle client. Every call gets a bounded
// timeout so a stalled completion cannot hang a chat turn.
func NewOpenAIClient(apiKey string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		timeout: timeout,
		retry:   DefaultRetryConfig(),
	}
}

// Complete sends the message history to the API and returns the assistant
// text. Transient failures are retried with backoff; the per-attempt
// timeout still bounds the total wait seen by the caller's context.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, opts CompleteOptions) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    oaMsgs,
		Temperature: opts.Temperature,
	}

	var lastErr error
	backoff := c.retry.BackoffBase
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateChatCompletion(attemptCtx, req)
		cancel()
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", nil
			}
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == c.retry.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * c.retry.BackoffMultiplier)
		if backoff > c.retry.MaxBackoff {
			backoff = c.retry.MaxBackoff
		}
	}
	return "", fmt.Errorf("chat completion: %w", lastErr)
}
