package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"

	// Per-call wall-clock ceiling. Synthesis-heavy models can run long.
	requestTimeout = 300 * time.Second

	maxAttempts = 3
)

// OpenRouter implements Provider against the OpenRouter gateway, which
// fronts every backend model the deliberation protocol uses.
type OpenRouter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

// OpenRouterOption configures an OpenRouter provider.
type OpenRouterOption func(*OpenRouter)

// WithBaseURL sets a custom base URL (useful for proxies or compatible APIs).
func WithBaseURL(url string) OpenRouterOption {
	return func(o *OpenRouter) { o.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) OpenRouterOption {
	return func(o *OpenRouter) { o.httpClient = c }
}

// WithBackoff overrides the retry wait schedule. Intended for tests.
func WithBackoff(f func(attempt int) time.Duration) OpenRouterOption {
	return func(o *OpenRouter) { o.backoff = f }
}

// NewOpenRouter creates an OpenRouter provider.
// Reads the API key from the OPENROUTER_API_KEY environment variable.
func NewOpenRouter(opts ...OpenRouterOption) (*OpenRouter, error) {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY environment variable required")
	}

	o := &OpenRouter{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		backoff: func(attempt int) time.Duration {
			// 2s, 4s, 8s
			return time.Duration(1<<(attempt+1)) * time.Second
		},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// Complete sends a prompt to a model via OpenRouter and returns the response.
// Timeouts, transport errors and 429 responses are retried up to maxAttempts
// with exponential backoff; other non-200 statuses fail immediately.
func (o *OpenRouter) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	payload := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr *Error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, o.backoff(attempt-1)); err != nil {
				return Response{}, err
			}
		}

		resp, retryable, err := o.complete(ctx, req.Model, body, start)
		if err == nil {
			return resp, nil
		}

		var perr *Error
		if !errors.As(err, &perr) || !retryable {
			return Response{}, err
		}
		lastErr = perr
	}

	return Response{}, lastErr
}

// complete performs a single attempt. The second return value reports whether
// the failure class is eligible for another attempt.
func (o *OpenRouter) complete(ctx context.Context, model string, body []byte, start time.Time) (Response, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Response{}, false, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("HTTP-Referer", "https://github.com/deliberate-api")
	httpReq.Header.Set("X-Title", "Deliberate API")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, false, ctx.Err()
		}
		return Response{}, true, &Error{Message: fmt.Sprintf("sending request: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, true, &Error{Message: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return Response{}, true, &Error{Message: "rate limited", StatusCode: resp.StatusCode}
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, false, &Error{
			Message:    fmt.Sprintf("chat completion failed: %s", string(respBody)),
			StatusCode: resp.StatusCode,
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return Response{}, false, &Error{Message: fmt.Sprintf("parsing response: %v", err)}
	}

	if len(chatResp.Choices) == 0 {
		return Response{}, false, &Error{Message: "no response choices returned"}
	}

	return Response{
		Model:      model,
		Content:    chatResp.Choices[0].Message.Content,
		TokensUsed: chatResp.Usage.TotalTokens,
		Latency:    time.Since(start),
	}, false, nil
}

// sleepCtx waits d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}
