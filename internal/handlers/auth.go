package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/database"
	logpkg "github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/middleware"
	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/services/auth"
	"github.com/benvon/smart-todo-client/internal/validation"
)

// UserStore is the account storage the auth handler needs
type UserStore interface {
	Create(ctx context.Context, user *models.User, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (*models.User, string, error)
}

// AuthHandler handles registration, login and the current-user lookup
type AuthHandler struct {
	users  UserStore
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users UserStore, tokens *auth.TokenService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, logger: logpkg.OrNop(logger)}
}

// RegisterRoutes registers the public account routes. The router should
// already have the /users prefix.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
}

// RegisterProtectedRoutes registers routes that need an authenticated user.
// The router should already have the /auth prefix.
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// Register creates an account and returns its public view
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Struct(req); err != nil {
		respondJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password_hash_failed", zap.String("error", logpkg.SanitizeError(err)))
		respondJSONError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &models.User{ID: uuid.NewString(), Email: req.Email, Username: req.Username}
	if err := h.users.Create(r.Context(), user, hash); err != nil {
		switch {
		case errors.Is(err, database.ErrEmailTaken):
			respondJSONError(w, r, http.StatusBadRequest, "A user with this email already exists")
		case errors.Is(err, database.ErrDuplicate):
			respondJSONError(w, r, http.StatusBadRequest, "A user with this username already exists")
		default:
			h.logger.Error("user_create_failed", zap.String("error", logpkg.SanitizeError(err)))
			respondJSONError(w, r, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.logger.Info("user_registered", zap.String("user_id", logpkg.SanitizeUserID(user.ID)))
	respondJSON(w, http.StatusOK, user)
}

// Login checks credentials and issues an access token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.Struct(req); err != nil {
		respondJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, hash, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.logger.Error("user_lookup_failed", zap.String("error", logpkg.SanitizeError(err)))
		respondJSONError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || auth.CheckPassword(hash, req.Password) != nil {
		respondJSONError(w, r, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("token_issue_failed", zap.String("error", logpkg.SanitizeError(err)))
		respondJSONError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        *user,
	})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, r, http.StatusUnauthorized, "Not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
