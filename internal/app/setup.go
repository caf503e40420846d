package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/ragchat/db"
	"github.com/koopa0/ragchat/internal/chat"
	"github.com/koopa0/ragchat/internal/completion"
	"github.com/koopa0/ragchat/internal/config"
	"github.com/koopa0/ragchat/internal/conversation"
	"github.com/koopa0/ragchat/internal/observability"
	"github.com/koopa0/ragchat/internal/vector"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	if cfg.TracingEnabled {
		traceShutdown, err := observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.TracingEndpoint,
			Environment: cfg.TracingEnvironment,
			ServiceName: cfg.TracingServiceName,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
		a.traceShutdown = traceShutdown
	}

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	vectorClient, err := vector.New(vector.Config{
		BaseURL: cfg.VectorBaseURL,
		Timeout: time.Duration(cfg.VectorTimeoutSecs) * time.Second,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector client: %w", err)
	}
	a.Vector = vectorClient

	completionClient, err := completion.New(completion.Config{
		BaseURL: cfg.CompletionBaseURL,
		APIKey:  cfg.CompletionAPIKey,
		Model:   cfg.ModelName,
		Timeout: time.Duration(cfg.CompletionTimeoutSecs) * time.Second,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}
	a.Completion = completionClient

	a.Conversations = conversation.New(conversation.NewQueries(pool), logger)

	// Background index writes outlive request contexts. They are bound to
	// the app lifecycle, not the server's shutdown signal, so Close can
	// wait for them before cancelling.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	a.bgCancel = bgCancel
	a.wg = &sync.WaitGroup{}

	chatService, err := chat.New(chat.Config{
		Searcher:          vectorClient,
		Completer:         completionClient,
		Turns:             a.Conversations,
		Logger:            logger,
		TopK:              cfg.TopK,
		ContextCharBudget: cfg.ContextCharBudget,
		Temperature:       &cfg.Temperature,
		MaxTokens:         cfg.MaxTokens,
		BackgroundCtx:     bgCtx,
		WG:                a.wg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat service: %w", err)
	}
	a.Chat = chatService

	return a, nil
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool
// with sensible defaults for connection management.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
