package provider

import (
	"context"
	"fmt"
	"time"
)

// Provider abstracts LLM chat-completion API interactions.
type Provider interface {
	// Complete sends a prompt and returns the full response.
	Complete(ctx context.Context, req Request) (Response, error)
}

// Request contains all inputs for a chat-completion call.
type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response contains the result of a chat-completion call.
type Response struct {
	Model      string        `json:"model"`
	Content    string        `json:"content"`
	TokensUsed int           `json:"tokens_used"`
	Latency    time.Duration `json:"latency_ms"`
}

// Error is a typed backend failure. StatusCode is zero when the failure
// happened below the HTTP layer (timeout, transport error, empty response).
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// ProviderFunc allows functions to implement Provider (adapter pattern).
// Useful for testing and simple inline implementations.
type ProviderFunc func(ctx context.Context, req Request) (Response, error)

func (f ProviderFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
