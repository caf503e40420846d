// Package completion provides a typed client for the LLM completion backend.
//
// The backend speaks the OpenAI-compatible chat completions wire format:
// a request of {model, messages, temperature, max_tokens} and a response
// whose first choice carries the generated message. Everything beyond the
// generated text is treated as opaque.
//
// The client never retries: Complete is not idempotent and a blind retry
// risks duplicate generations (and duplicate spend). A proactive rate
// limiter bounds outbound request rate instead.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Sentinel errors for completion operations.
var (
	// ErrUnavailable indicates the backend could not be reached or returned
	// a server error.
	ErrUnavailable = errors.New("completion backend unavailable")

	// ErrRejected indicates the backend refused the request: content
	// policy, quota, or a malformed prompt it will never accept.
	ErrRejected = errors.New("completion rejected")

	// ErrEmpty indicates the backend answered successfully but produced no
	// generated text.
	ErrEmpty = errors.New("completion returned no text")
)

// Option defaults applied when the caller passes zero values.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

const defaultTimeout = 60 * time.Second

// Options are per-call generation parameters.
// A nil Temperature and a zero MaxTokens select the package defaults;
// an explicit zero Temperature requests deterministic sampling.
type Options struct {
	Temperature *float64
	MaxTokens   int
}

// Client is a typed HTTP client for the completion backend.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Config configures the completion client.
type Config struct {
	BaseURL string        // Required: backend base URL (e.g. https://api.openai.com/v1)
	APIKey  string        // Bearer token; empty = no Authorization header
	Model   string        // Required: model identifier sent with each request
	Timeout time.Duration // Per-request timeout (0 = 60s default)
	Limiter *rate.Limiter // Proactive rate limiting (nil = 10 req/s, burst 30)
	Logger  *slog.Logger  // nil = slog.Default()
}

// New creates a completion client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("completion base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("completion model is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger,
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete generates a response for the given prompts.
// Unset opts fields select DefaultTemperature / DefaultMaxTokens.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   opts.MaxTokens,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("closing response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		c.logger.Debug("completion server error", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests:
		// Content policy, quota, or a prompt the backend will never accept.
		// The body detail is logged, never surfaced to end users.
		c.logger.Debug("completion rejected", "status", resp.StatusCode, "body_length", len(body))
		return "", fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmpty
	}

	text := parsed.Choices[0].Message.Content
	c.logger.Debug("completion generated",
		"model", c.model,
		"response_length", len(text),
		"elapsed", time.Since(start),
	)
	return text, nil
}
