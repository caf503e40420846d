// Package conversation provides the durable conversation log.
//
// One Turn is persisted per exchange: user message, generated response,
// and an immutable snapshot of the retrieved context that augmented the
// prompt. Append is the only mutation; turns are never updated or
// deleted by this service.
package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Turn represents one persisted user-message/assistant-response exchange.
type Turn struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"userId"`
	Message  string    `json:"message"`
	Response string    `json:"response"`

	// Context holds the retrieved snippets used to augment the prompt,
	// in retrieval rank order. Snapshots, not references: later index
	// changes never alter a persisted turn.
	Context []string `json:"context"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
