package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Sentinel errors for store operations.
var (
	// ErrUnavailable indicates the durable store failed the operation.
	ErrUnavailable = errors.New("conversation store unavailable")

	// ErrEmptyResponse indicates an attempt to persist a turn without a
	// response. Every persisted turn has a non-empty response.
	ErrEmptyResponse = errors.New("turn response cannot be empty")
)

// Querier defines the database operations the Store depends on.
// Interfaces are defined by the consumer, not the provider: this lets
// tests substitute a mock for the pgx-backed Queries.
type Querier interface {
	InsertTurn(ctx context.Context, arg InsertTurnParams) (TurnRow, error)
	TurnsByUser(ctx context.Context, userID string) ([]TurnRow, error)
}

// Store manages conversation turn persistence on PostgreSQL.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	queries Querier
	logger  *slog.Logger
}

// New creates a Store.
//
// Example (production):
//
//	store := conversation.New(conversation.NewQueries(pool), logger)
//
// Example (testing):
//
//	store := conversation.New(mockQuerier, log.NewNop())
func New(querier Querier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{queries: querier, logger: logger}
}

// Append persists a new turn and returns it with ID and timestamps
// assigned. The context slice is copied so the persisted snapshot is
// independent of the caller's slice.
func (s *Store) Append(ctx context.Context, turn Turn) (*Turn, error) {
	if turn.Response == "" {
		return nil, ErrEmptyResponse
	}

	contextCopy := make([]string, len(turn.Context))
	copy(contextCopy, turn.Context)

	row, err := s.queries.InsertTurn(ctx, InsertTurnParams{
		UserID:   turn.UserID,
		Message:  turn.Message,
		Response: turn.Response,
		Context:  contextCopy,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: appending turn for user %q: %v", ErrUnavailable, turn.UserID, err)
	}

	result := rowToTurn(row)
	s.logger.Debug("appended turn",
		"id", result.ID,
		"user_id", result.UserID,
		"context_count", len(result.Context),
	)
	return result, nil
}

// ListByUser returns all turns for a user sorted by created_at
// descending. An unknown user yields an empty slice, not an error.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*Turn, error) {
	rows, err := s.queries.TurnsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing turns for user %q: %v", ErrUnavailable, userID, err)
	}

	turns := make([]*Turn, 0, len(rows))
	for _, row := range rows {
		turns = append(turns, rowToTurn(row))
	}

	s.logger.Debug("listed turns", "user_id", userID, "count", len(turns))
	return turns, nil
}

// rowToTurn converts a database row to the application type.
func rowToTurn(row TurnRow) *Turn {
	t := &Turn{
		ID:       pgUUIDToUUID(row.ID),
		UserID:   row.UserID,
		Message:  row.Message,
		Response: row.Response,
		Context:  row.Context,
	}
	if t.Context == nil {
		t.Context = []string{}
	}
	if row.CreatedAt.Valid {
		t.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		t.UpdatedAt = row.UpdatedAt.Time
	}
	return t
}

// pgUUIDToUUID converts pgtype.UUID to uuid.UUID.
func pgUUIDToUUID(pgUUID pgtype.UUID) uuid.UUID {
	if !pgUUID.Valid {
		return uuid.Nil
	}
	return pgUUID.Bytes
}
