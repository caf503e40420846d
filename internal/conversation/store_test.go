package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/koopa0/ragchat/internal/log"
)

// mockQuerier is a test double for the Querier interface.
type mockQuerier struct {
	insertFunc func(ctx context.Context, arg InsertTurnParams) (TurnRow, error)
	listFunc   func(ctx context.Context, userID string) ([]TurnRow, error)

	insertCalls int
}

func (m *mockQuerier) InsertTurn(ctx context.Context, arg InsertTurnParams) (TurnRow, error) {
	m.insertCalls++
	return m.insertFunc(ctx, arg)
}

func (m *mockQuerier) TurnsByUser(ctx context.Context, userID string) ([]TurnRow, error) {
	return m.listFunc(ctx, userID)
}

func testRow(userID, message, response string, ctxTexts []string, at time.Time) TurnRow {
	return TurnRow{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		UserID:    userID,
		Message:   message,
		Response:  response,
		Context:   ctxTexts,
		CreatedAt: pgtype.Timestamptz{Time: at, Valid: true},
		UpdatedAt: pgtype.Timestamptz{Time: at, Valid: true},
	}
}

func TestAppend(t *testing.T) {
	t.Parallel()

	now := time.Now()
	q := &mockQuerier{
		insertFunc: func(_ context.Context, arg InsertTurnParams) (TurnRow, error) {
			return testRow(arg.UserID, arg.Message, arg.Response, arg.Context, now), nil
		},
	}
	store := New(q, log.NewNop())

	turn, err := store.Append(context.Background(), Turn{
		UserID:   "u1",
		Message:  "hello",
		Response: "Hi there!",
		Context:  []string{"prior greeting"},
	})
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	if turn.ID == uuid.Nil {
		t.Error("Append() did not assign an ID")
	}
	if turn.CreatedAt.IsZero() {
		t.Error("Append() did not assign CreatedAt")
	}
	if turn.UserID != "u1" || turn.Message != "hello" || turn.Response != "Hi there!" {
		t.Errorf("Append() = %+v, fields not preserved", turn)
	}
	if len(turn.Context) != 1 || turn.Context[0] != "prior greeting" {
		t.Errorf("context = %v, want [prior greeting]", turn.Context)
	}
}

func TestAppend_EmptyResponse(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{
		insertFunc: func(context.Context, InsertTurnParams) (TurnRow, error) {
			t.Fatal("InsertTurn must not be called for an empty response")
			return TurnRow{}, nil
		},
	}
	store := New(q, log.NewNop())

	_, err := store.Append(context.Background(), Turn{UserID: "u1", Message: "m"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Append() with empty response = %v, want ErrEmptyResponse", err)
	}
	if q.insertCalls != 0 {
		t.Errorf("insert calls = %d, want 0", q.insertCalls)
	}
}

func TestAppend_CopiesContext(t *testing.T) {
	t.Parallel()

	var inserted []string
	q := &mockQuerier{
		insertFunc: func(_ context.Context, arg InsertTurnParams) (TurnRow, error) {
			inserted = arg.Context
			return testRow(arg.UserID, arg.Message, arg.Response, arg.Context, time.Now()), nil
		},
	}
	store := New(q, log.NewNop())

	original := []string{"snapshot"}
	if _, err := store.Append(context.Background(), Turn{UserID: "u1", Message: "m", Response: "r", Context: original}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	original[0] = "mutated"
	if inserted[0] != "snapshot" {
		t.Error("Append() shared the caller's context slice instead of copying it")
	}
}

func TestAppend_StoreFailure(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{
		insertFunc: func(context.Context, InsertTurnParams) (TurnRow, error) {
			return TurnRow{}, errors.New("connection refused")
		},
	}
	store := New(q, log.NewNop())

	_, err := store.Append(context.Background(), Turn{UserID: "u1", Message: "m", Response: "r"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Append() on query failure = %v, want ErrUnavailable", err)
	}
}

func TestListByUser(t *testing.T) {
	t.Parallel()

	base := time.Now()
	q := &mockQuerier{
		listFunc: func(_ context.Context, userID string) ([]TurnRow, error) {
			return []TurnRow{
				testRow(userID, "second", "r2", nil, base.Add(time.Minute)),
				testRow(userID, "first", "r1", []string{"ctx"}, base),
			}, nil
		},
	}
	store := New(q, log.NewNop())

	turns, err := store.ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Message != "second" {
		t.Errorf("turns[0].Message = %q, want newest first", turns[0].Message)
	}
	if turns[1].Context[0] != "ctx" {
		t.Errorf("turns[1].Context = %v, want [ctx]", turns[1].Context)
	}
	// nil context column must surface as an empty slice, not nil
	if turns[0].Context == nil {
		t.Error("nil context should be normalized to an empty slice")
	}
}

func TestListByUser_UnknownUser(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{
		listFunc: func(context.Context, string) ([]TurnRow, error) {
			return nil, nil
		},
	}
	store := New(q, log.NewNop())

	turns, err := store.ListByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByUser() for unknown user should not error, got: %v", err)
	}
	if turns == nil || len(turns) != 0 {
		t.Errorf("turns = %v, want empty non-nil slice", turns)
	}
}

func TestListByUser_StoreFailure(t *testing.T) {
	t.Parallel()

	q := &mockQuerier{
		listFunc: func(context.Context, string) ([]TurnRow, error) {
			return nil, errors.New("connection refused")
		},
	}
	store := New(q, log.NewNop())

	_, err := store.ListByUser(context.Background(), "u1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("ListByUser() on query failure = %v, want ErrUnavailable", err)
	}
}
