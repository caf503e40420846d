// Package chat orchestrates a single conversational turn: retrieve
// related context from the similarity index, generate a response, persist
// the turn, and feed both sides of the exchange back into the index.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/koopa0/ragchat/internal/completion"
	"github.com/koopa0/ragchat/internal/conversation"
	"github.com/koopa0/ragchat/internal/vector"
)

// DefaultTopK is the number of passages retrieved per turn when the
// caller does not configure one.
const DefaultTopK = 5

// Searcher is the similarity index surface the service depends on.
// Interfaces are defined by the consumer: tests substitute fakes for
// the HTTP-backed vector.Client.
type Searcher interface {
	AddText(ctx context.Context, text string, metadata map[string]any) error
	SearchSimilar(ctx context.Context, query string, k int) ([]vector.Passage, error)
}

// Completer generates a response from a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts completion.Options) (string, error)
}

// TurnStore persists and lists conversation turns.
type TurnStore interface {
	Append(ctx context.Context, turn conversation.Turn) (*conversation.Turn, error)
	ListByUser(ctx context.Context, userID string) ([]*conversation.Turn, error)
}

// Config contains all required parameters for the chat service.
type Config struct {
	Searcher  Searcher
	Completer Completer
	Turns     TurnStore
	Logger    *slog.Logger

	// Generation and retrieval tuning (zero values use defaults).
	// Temperature is a pointer so an explicit 0 can be distinguished
	// from "unset"; nil selects the completion package default.
	TopK              int
	ContextCharBudget int
	Temperature       *float64
	MaxTokens         int

	// Background lifecycle for post-turn index writes.
	// BackgroundCtx outlives individual requests; WG tracks the index
	// goroutines so Close can wait for them on shutdown.
	BackgroundCtx context.Context //nolint:containedctx // App lifecycle context, not a request context
	WG            *sync.WaitGroup
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Searcher == nil {
		return errors.New("searcher is required")
	}
	if cfg.Completer == nil {
		return errors.New("completer is required")
	}
	if cfg.Turns == nil {
		return errors.New("turn store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Service handles conversational turns.
//
// Service is stateless and uses dependency injection. All configuration
// values are captured immutably at construction time to ensure
// thread-safe concurrent access.
type Service struct {
	topK          int
	contextBudget int
	genOpts       completion.Options

	searcher  Searcher
	completer Completer
	turns     TurnStore
	logger    *slog.Logger

	bgCtx context.Context //nolint:containedctx // App lifecycle context, not a request context
	wg    *sync.WaitGroup // Tracks index-write goroutines; waited on by App.Close().
}

// New creates a chat service with required configuration.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	budget := cfg.ContextCharBudget
	if budget <= 0 {
		budget = DefaultContextCharBudget
	}

	bgCtx := cfg.BackgroundCtx
	if bgCtx == nil {
		bgCtx = context.Background()
	}

	wg := cfg.WG
	if wg == nil {
		wg = &sync.WaitGroup{}
	}

	s := &Service{
		topK:          topK,
		contextBudget: budget,
		genOpts: completion.Options{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		searcher:  cfg.Searcher,
		completer: cfg.Completer,
		turns:     cfg.Turns,
		logger:    cfg.Logger,
		bgCtx:     bgCtx,
		wg:        wg,
	}

	s.logger.Info("chat service initialized", "topK", topK, "contextBudget", budget)
	return s, nil
}

// HandleTurn runs one conversational turn for a user.
//
// Retrieval is best-effort: if the similarity index is down the turn
// degrades to generation without context. Generation and persistence
// are fatal: on failure nothing is stored and the error is returned
// unchanged for the caller to classify with errors.Is. After the turn
// is persisted, both the message and the response are written back to
// the index asynchronously; those writes outlive the request.
func (s *Service) HandleTurn(ctx context.Context, userID, message string) (*conversation.Turn, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	start := time.Now()

	// Step 1: Retrieve related passages. Index failure degrades the
	// turn rather than failing it.
	var contextTexts []string
	passages, err := s.searcher.SearchSimilar(ctx, message, s.topK)
	if err != nil {
		s.logger.Warn("similarity retrieval failed, continuing without context",
			"user_id", userID,
			"error", err,
		)
	} else {
		texts := make([]string, 0, len(passages))
		for _, p := range passages {
			texts = append(texts, p.Text)
		}
		contextTexts = selectContext(texts, s.contextBudget)
	}

	// Step 2: Generate. Any completion failure is fatal for the turn.
	userPrompt := buildUserPrompt(message, contextTexts)
	response, err := s.completer.Complete(ctx, systemPrompt, userPrompt, s.genOpts)
	if err != nil {
		return nil, fmt.Errorf("generating response for user %q: %w", userID, err)
	}

	// Step 3: Persist the turn with the context that actually shaped it.
	turn, err := s.turns.Append(ctx, conversation.Turn{
		UserID:   userID,
		Message:  message,
		Response: response,
		Context:  contextTexts,
	})
	if err != nil {
		return nil, fmt.Errorf("persisting turn for user %q: %w", userID, err)
	}

	// Step 4: Feed both sides back into the index (best-effort, async).
	// Uses bgCtx instead of the request ctx so indexing outlives the
	// HTTP response. Tracked by wg for graceful shutdown.
	s.indexAsync(turn.Message, map[string]any{
		"userId":    userID,
		"timestamp": turn.CreatedAt.UTC().Format(time.RFC3339),
	})
	s.indexAsync(turn.Response, map[string]any{
		"userId":     userID,
		"timestamp":  turn.CreatedAt.UTC().Format(time.RFC3339),
		"isResponse": true,
	})

	s.logger.Info("turn completed",
		"user_id", userID,
		"context_count", len(contextTexts),
		"response_length", len(response),
		"elapsed", time.Since(start),
	)
	return turn, nil
}

// History returns the user's turns, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]*conversation.Turn, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}
	return s.turns.ListByUser(ctx, userID)
}

// indexAsync writes text to the similarity index in the background.
// Errors are logged, never returned: a failed index write costs future
// retrieval quality, not the current turn.
func (s *Service) indexAsync(text string, metadata map[string]any) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.searcher.AddText(s.bgCtx, text, metadata); err != nil {
			s.logger.Warn("background index write failed",
				"error", err,
				"text_length", len(text),
			)
		}
	}()
}
