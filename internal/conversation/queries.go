package conversation

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx execution methods the query layer needs.
// Satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TurnRow is the database representation of a conversation turn.
type TurnRow struct {
	ID        pgtype.UUID
	UserID    string
	Message   string
	Response  string
	Context   []string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// InsertTurnParams are the caller-supplied fields of a new turn.
// ID and timestamps are assigned by the database.
type InsertTurnParams struct {
	UserID   string
	Message  string
	Response string
	Context  []string
}

// Queries executes the SQL for conversation turns against a DBTX.
type Queries struct {
	db DBTX
}

// NewQueries creates a query layer bound to the given executor.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

const insertTurn = `
INSERT INTO conversation_turns (user_id, message, response, context)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, message, response, context, created_at, updated_at
`

// InsertTurn inserts a turn and returns the row with database-assigned
// id and timestamps.
func (q *Queries) InsertTurn(ctx context.Context, arg InsertTurnParams) (TurnRow, error) {
	row := q.db.QueryRow(ctx, insertTurn, arg.UserID, arg.Message, arg.Response, arg.Context)

	var r TurnRow
	err := row.Scan(&r.ID, &r.UserID, &r.Message, &r.Response, &r.Context, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const turnsByUser = `
SELECT id, user_id, message, response, context, created_at, updated_at
FROM conversation_turns
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`

// TurnsByUser returns all turns for a user, newest first.
// The id tiebreaker keeps the order stable when two turns share a
// timestamp.
func (q *Queries) TurnsByUser(ctx context.Context, userID string) ([]TurnRow, error) {
	rows, err := q.db.Query(ctx, turnsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TurnRow
	for rows.Next() {
		var r TurnRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Message, &r.Response, &r.Context, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
