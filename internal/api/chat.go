package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adjutantlabs/adjutant/internal/chat"
	"github.com/adjutantlabs/adjutant/internal/log"
)

// maxBodyBytes caps the request body size for all JSON endpoints.
const maxBodyBytes = 1 << 20 // 1MB

// chatHandler serves the chat and reset endpoints.
type chatHandler struct {
	svc    *chat.Service
	logger log.Logger
}

// chatResponse mirrors the chat-completions response shape the
// frontend already consumes: the reply lives at
// choices[0].message.content.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatMessage struct {
	Content string `json:"content"`
}

// send handles POST /api/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	reply, err := h.svc.Send(r.Context(), req)
	if err != nil {
		h.writeSendError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Choices: []chatChoice{{Message: chatMessage{Content: reply}}},
	}, h.logger)
}

// writeSendError maps service errors to HTTP responses. Validation
// failures carry their message to the client; everything else is a
// generic 500 so upstream details never leak.
func (h *chatHandler) writeSendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, chat.ErrInvalidRequest),
		errors.Is(err, chat.ErrInvalidModel),
		errors.Is(err, chat.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
	default:
		requestID, _ := requestIDFromContext(r.Context())
		h.logger.Error("chat turn failed", "error", err, "request_id", requestID)
		writeError(w, http.StatusInternalServerError, "Something went wrong", h.logger)
	}
}

// resetRequest is the body of POST /api/reset.
type resetRequest struct {
	SessionID string `json:"sessionId"`
}

// reset handles POST /api/reset. A sessionId that is missing or names
// no live session gets the same 400, so callers cannot distinguish
// "never existed" from "already reset".
func (h *chatHandler) reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Invalid sessionId", h.logger)
		return
	}

	if !h.svc.Reset(req.SessionID) {
		writeError(w, http.StatusBadRequest, "Invalid sessionId", h.logger)
		return
	}
	h.logger.Debug("session reset", "sessionId", req.SessionID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session reset"}, h.logger)
}
