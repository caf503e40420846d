// Package vector provides a typed client for the similarity index backend.
//
// The backend is a remote REST service exposing two endpoints:
//
//	POST {base}/add    {"text": ..., "metadata": {...}}
//	POST {base}/search {"query": ..., "k": ...} -> [{"text", "metadata", "similarity"}]
//
// The client is stateless: each call is a single HTTP round trip and no
// results are cached. It never retries — /add is not idempotent and a blind
// retry risks duplicate index entries.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Sentinel errors for similarity index operations.
var (
	// ErrUnavailable indicates the index backend could not be reached or
	// returned a server error.
	ErrUnavailable = errors.New("similarity index unavailable")

	// ErrEmptyText indicates AddText was called with empty text.
	ErrEmptyText = errors.New("text cannot be empty")
)

// DefaultSearchK is the number of passages returned when the caller does
// not specify k.
const DefaultSearchK = 5

const defaultTimeout = 10 * time.Second

// Passage is a single similarity search result. Passages are transient
// values owned by the caller; the client never retains them.
type Passage struct {
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

// Client is a typed HTTP client for the similarity index backend.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config configures the similarity index client.
type Config struct {
	BaseURL string        // Required: backend base URL (no trailing slash)
	Timeout time.Duration // Per-request timeout (0 = 10s default)
	Logger  *slog.Logger  // nil = slog.Default()
}

// New creates a similarity index client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("vector base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

type addRequest struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

type searchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// AddText submits text to the index for future retrieval.
// Returns ErrEmptyText before any network call if text is empty, and a
// wrapped ErrUnavailable if the backend cannot be reached or reports an
// error.
func (c *Client) AddText(ctx context.Context, text string, metadata map[string]any) error {
	if text == "" {
		return ErrEmptyText
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	body, err := c.post(ctx, "/add", addRequest{Text: text, Metadata: metadata})
	if err != nil {
		return err
	}
	// Response body carries no information on success
	_ = body

	c.logger.Debug("indexed text", "length", len(text))
	return nil
}

// SearchSimilar returns up to k passages ranked descending by similarity.
// k <= 0 uses DefaultSearchK. An empty result is not an error; backend
// failure returns a wrapped ErrUnavailable.
func (c *Client) SearchSimilar(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 {
		k = DefaultSearchK
	}

	body, err := c.post(ctx, "/search", searchRequest{Query: query, K: k})
	if err != nil {
		return nil, err
	}

	var passages []Passage
	if err := json.Unmarshal(body, &passages); err != nil {
		return nil, fmt.Errorf("%w: decoding search response: %v", ErrUnavailable, err)
	}

	c.logger.Debug("similarity search", "query_length", len(query), "k", k, "results", len(passages))
	return passages, nil
}

// post issues a JSON POST and returns the response body.
// Network failures and non-2xx statuses map to ErrUnavailable.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("closing response body", "error", closeErr)
		}
	}()

	// Cap the body read: search results are small, and an errant backend
	// must not exhaust memory.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("similarity backend error", "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, path, resp.StatusCode)
	}

	return body, nil
}
