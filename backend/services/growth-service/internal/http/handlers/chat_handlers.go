package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"growthwatch/backend/services/growth-service/internal/service"
)

// ChatHandlers serves the canned chatbot over JSON and websocket.
type ChatHandlers struct {
	svc    *service.AssessmentService
	logger *zap.Logger
}

// NewChatHandlers returns handler struct.
func NewChatHandlers(svc *service.AssessmentService, logger *zap.Logger) *ChatHandlers {
	return &ChatHandlers{svc: svc, logger: logger}
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Ask handles POST /api/chat.
func (h *ChatHandlers) Ask(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	answer, err := h.svc.Chat(r.Context(), id, req.Question)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Answer: answer})
}

// History handles GET /api/chat/history.
func (h *ChatHandlers) History(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	msgs, err := h.svc.Transcript(r.Context(), id)
	if err != nil {
		h.logger.Error("load chat transcript", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

// Process answers one websocket frame of the form {"question": "..."}.
func (h *ChatHandlers) Process(ctx context.Context, sessionID string, raw []byte) ([]byte, error) {
	var req chatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return json.Marshal(chatResponse{Error: "invalid message"})
	}
	answer, err := h.svc.Chat(ctx, sessionID, req.Question)
	if errors.Is(err, service.ErrInvalidInput) {
		return json.Marshal(chatResponse{Error: "empty question"})
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(chatResponse{Answer: answer})
}
