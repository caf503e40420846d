// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles the database pool, backend clients,
// and the chat service. Call Setup to build it and Close to release every
// resource it owns.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/ragchat/internal/chat"
	"github.com/koopa0/ragchat/internal/completion"
	"github.com/koopa0/ragchat/internal/config"
	"github.com/koopa0/ragchat/internal/conversation"
	"github.com/koopa0/ragchat/internal/vector"
)

// closeTimeout bounds how long Close waits for in-flight background
// index writes before giving up.
const closeTimeout = 10 * time.Second

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool          *pgxpool.Pool
	Vector        *vector.Client
	Completion    *completion.Client
	Conversations *conversation.Store
	Chat          *chat.Service

	// Lifecycle for background index writes. bgCtx outlives request
	// contexts; wg tracks the goroutines the chat service launches.
	bgCancel context.CancelFunc
	wg       *sync.WaitGroup

	// traceShutdown flushes pending spans; nil when tracing is disabled.
	traceShutdown func(context.Context) error
}

// Close gracefully shuts down all resources. It first waits (bounded)
// for pending background index writes, then cancels their context,
// closes the database pool, and flushes pending trace spans.
func (a *App) Close() error {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("shutting down application")

	if a.wg != nil {
		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(closeTimeout):
			logger.Warn("background index writes still pending at shutdown", "timeout", closeTimeout)
		}
	}

	if a.bgCancel != nil {
		a.bgCancel()
	}

	if a.Pool != nil {
		a.Pool.Close()
		logger.Info("database pool closed")
	}

	if a.traceShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.traceShutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shut down tracer provider", "error", err)
		}
	}

	return nil
}
