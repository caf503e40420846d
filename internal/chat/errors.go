package chat

import "errors"

// Sentinel errors for turn handling.
var (
	// ErrInvalidInput indicates the user ID or message is missing or
	// malformed. Nothing is retrieved, generated, or persisted.
	ErrInvalidInput = errors.New("invalid input")
)
