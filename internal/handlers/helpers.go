package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/database"
	logpkg "github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/middleware"
	"github.com/benvon/smart-todo-client/internal/validation"
)

// respondJSON sends data as the JSON response body
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSONError sends the shared error body
func respondJSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	middleware.WriteError(w, r, status, message)
}

// decodeJSON reads the request body into dst
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// respondTodoError maps service errors onto status codes. Unexpected errors
// are logged and reported without detail.
func respondTodoError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondJSONError(w, r, http.StatusNotFound, "Todo not found")
	case errors.Is(err, validation.ErrTitleRequired):
		respondJSONError(w, r, http.StatusBadRequest, err.Error())
	default:
		logger.Error(op+"_failed",
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		respondJSONError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
