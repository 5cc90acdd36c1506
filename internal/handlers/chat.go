package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/middleware"
	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/validation"
)

// Responder answers a chat message for a user
type Responder interface {
	Respond(ctx context.Context, userID, message string) (string, error)
}

// ChatHandler handles assistant chat requests
type ChatHandler struct {
	assistant Responder
	logger    *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(assistant Responder, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{assistant: assistant, logger: logpkg.OrNop(logger)}
}

// RegisterRoutes registers chat routes on an authenticated router
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.SendMessage).Methods("POST")
}

// SendMessage runs one message through the assistant. The message may come
// from the JSON body or, for older clients, the "message" query parameter.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, r, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req models.ChatRequest
	if q := r.URL.Query().Get("message"); q != "" {
		req.Message = q
	} else if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Message = strings.TrimSpace(validation.SanitizeText(req.Message))
	if err := validation.Struct(req); err != nil {
		respondJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Debug("chat_message_received",
		zap.String("user_id", logpkg.SanitizeUserID(user.ID)),
		zap.String("message", logpkg.SanitizeChatContent(req.Message)),
	)

	reply, err := h.assistant.Respond(r.Context(), user.ID, req.Message)
	if err != nil {
		h.logger.Error("chat_failed",
			zap.String("user_id", logpkg.SanitizeUserID(user.ID)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, r, http.StatusInternalServerError, "Error processing message: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, models.ChatReply{Success: true, Response: reply, UserID: user.ID})
}
