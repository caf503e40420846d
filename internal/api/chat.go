package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/koopa0/ragchat/internal/chat"
	"github.com/koopa0/ragchat/internal/completion"
	"github.com/koopa0/ragchat/internal/conversation"
)

const (
	// maxChatBodyBytes bounds the request body size for chat requests.
	maxChatBodyBytes = 64 << 10

	// maxMessageLength bounds the user message length in runes.
	maxMessageLength = 8000
)

// chatHandler serves the conversational endpoints.
type chatHandler struct {
	service *chat.Service
	logger  *slog.Logger
}

type chatRequest struct {
	Message string `json:"message"`
}

// send handles POST /api/v1/chat/{userId}: one conversational turn.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}

	if len([]rune(req.Message)) > maxMessageLength {
		WriteError(w, http.StatusBadRequest, "message_too_long", "message must be 8000 characters or fewer", h.logger)
		return
	}

	turn, err := h.service.HandleTurn(r.Context(), userID, req.Message)
	if err != nil {
		h.writeTurnError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, turn)
}

// history handles GET /api/v1/chat/{userId}/history: past turns, newest first.
func (h *chatHandler) history(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	turns, err := h.service.History(r.Context(), userID)
	if err != nil {
		h.writeTurnError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, turns)
}

// writeTurnError maps service errors to HTTP responses. The client gets a
// stable code and a generic message; the underlying detail is only logged.
func (h *chatHandler) writeTurnError(w http.ResponseWriter, r *http.Request, err error) {
	requestID, _ := requestIDFromContext(r.Context())

	switch {
	case errors.Is(err, chat.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", firstLine(err.Error()), h.logger)

	case errors.Is(err, completion.ErrRejected):
		h.logger.Warn("completion rejected", "path", r.URL.Path, "request_id", requestID, "error", err)
		WriteError(w, http.StatusUnprocessableEntity, "completion_rejected", "the message could not be processed", h.logger)

	case errors.Is(err, completion.ErrUnavailable), errors.Is(err, completion.ErrEmpty):
		h.logger.Error("completion failed", "path", r.URL.Path, "request_id", requestID, "error", err)
		WriteError(w, http.StatusBadGateway, "completion_failed", "failed to generate a response", h.logger)

	case errors.Is(err, conversation.ErrUnavailable):
		h.logger.Error("conversation store failed", "path", r.URL.Path, "request_id", requestID, "error", err)
		WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "failed to access conversation history", h.logger)

	default:
		h.logger.Error("chat request failed", "path", r.URL.Path, "request_id", requestID, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
	}
}

// firstLine keeps validation messages single-line for the JSON envelope.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
