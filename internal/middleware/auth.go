package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/request"
)

// TokenVerifier validates a bearer token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*models.JWTClaims, error)
}

// UserLookup resolves the token subject to a stored user
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ErrUserNotFound should be wrapped by UserLookup when the subject is unknown
var ErrUserNotFound = errors.New("user not found")

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

// Auth creates authentication middleware that validates bearer JWTs and
// attaches the token's user to the request context
func Auth(verifier TokenVerifier, users UserLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteError(w, r, http.StatusUnauthorized, "Not authenticated")
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
				WriteError(w, r, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(tokenString))
			if err != nil {
				logger.Debug("token_verification_failed",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				WriteError(w, r, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			ctx := r.Context()
			user, err := users.GetByID(ctx, claims.Sub)
			if err != nil {
				if errors.Is(err, ErrUserNotFound) {
					WriteError(w, r, http.StatusUnauthorized, "Could not validate credentials")
					return
				}
				logger.Error("user_lookup_failed",
					zap.String("user_id", logpkg.SanitizeUserID(claims.Sub)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				WriteError(w, r, http.StatusInternalServerError, "Database error")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}
