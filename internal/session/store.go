package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/logger"
)

// TokenKey is the fixed slot key holding the bearer token
const TokenKey = "auth-token"

// TokenStore holds the single bearer token of this client
type TokenStore struct {
	slot   Slot
	logger *zap.Logger
}

// NewTokenStore wraps slot. A nil logger disables logging.
func NewTokenStore(slot Slot, log *zap.Logger) *TokenStore {
	return &TokenStore{slot: slot, logger: logger.OrNop(log)}
}

// SetToken stores token as-is. The format is not validated.
func (s *TokenStore) SetToken(ctx context.Context, token string) error {
	return s.slot.Set(ctx, TokenKey, token)
}

// GetToken returns the stored token. Slot read failures are logged and
// reported as no token.
func (s *TokenStore) GetToken(ctx context.Context) (string, bool) {
	token, ok, err := s.slot.Get(ctx, TokenKey)
	if err != nil {
		s.logger.Warn("token_slot_read_failed", zap.String("error", logger.SanitizeError(err)))
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// RemoveToken clears the slot. Removing an absent token is not an error.
func (s *TokenStore) RemoveToken(ctx context.Context) error {
	return s.slot.Delete(ctx, TokenKey)
}

// IsAuthenticated reports whether a non-empty token is stored. It does not
// check the signature or the expiry.
func (s *TokenStore) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.GetToken(ctx)
	return ok
}

// Close releases the underlying slot
func (s *TokenStore) Close() error {
	return s.slot.Close()
}
