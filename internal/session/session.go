package session

import (
	"context"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/logger"
)

// DefaultExpirySkew tolerates small clock drift between client and API
const DefaultExpirySkew = 30 * time.Second

// Session is the one active credential of this client. Controllers receive it
// instead of reaching for the slot directly.
type Session struct {
	store       *TokenStore
	logger      *zap.Logger
	checkExpiry bool
	now         func() time.Time
}

// Option configures a Session
type Option func(*Session)

// WithExpiryCheck makes an expired token resolve to no identity
func WithExpiryCheck(enabled bool) Option {
	return func(s *Session) { s.checkExpiry = enabled }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session over store
func New(store *TokenStore, log *zap.Logger, opts ...Option) *Session {
	s := &Session{
		store:  store,
		logger: logger.OrNop(log),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying token store
func (s *Session) Store() *TokenStore {
	return s.store
}

// Token returns the stored bearer token
func (s *Session) Token(ctx context.Context) (string, bool) {
	return s.store.GetToken(ctx)
}

// Login stores a freshly issued token
func (s *Session) Login(ctx context.Context, token string) error {
	return s.store.SetToken(ctx, token)
}

// Logout clears the stored token
func (s *Session) Logout(ctx context.Context) error {
	return s.store.RemoveToken(ctx)
}

// IsAuthenticated reports whether a token is present
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	return s.store.IsAuthenticated(ctx)
}

// Claims decodes the stored token. Decode failures are logged.
func (s *Session) Claims(ctx context.Context) (Claims, bool) {
	token, ok := s.store.GetToken(ctx)
	if !ok {
		return nil, false
	}
	claims, err := decode(token)
	if err != nil {
		s.logger.Warn("token_decode_failed", zap.String("error", logger.SanitizeError(err)))
		return nil, false
	}
	return claims, true
}

// CurrentUserID returns the "sub" claim of the stored token. It reports false
// when there is no token, the token cannot be decoded, the claim is missing,
// or the token is expired and the expiry check is enabled.
func (s *Session) CurrentUserID(ctx context.Context) (string, bool) {
	claims, ok := s.Claims(ctx)
	if !ok {
		return "", false
	}
	sub, ok := claims.Subject()
	if !ok {
		s.logger.Debug("token_has_no_subject")
		return "", false
	}
	if s.checkExpiry && s.Expired(ctx) {
		s.logger.Info("token_expired", zap.String("user_id", logger.SanitizeUserID(sub)))
		return "", false
	}
	return sub, true
}

// RequireUserID is CurrentUserID returning ErrIdentityMissing when absent
func (s *Session) RequireUserID(ctx context.Context) (string, error) {
	id, ok := s.CurrentUserID(ctx)
	if !ok {
		return "", ErrIdentityMissing
	}
	return id, nil
}

// ExpiresAt returns the token's "exp" claim. ok is false when there is no
// token, it cannot be parsed, or it carries no expiry.
func (s *Session) ExpiresAt(ctx context.Context) (time.Time, bool) {
	token, ok := s.store.GetToken(ctx)
	if !ok {
		return time.Time{}, false
	}
	parsed, err := jwt.ParseInsecure([]byte(token))
	if err != nil {
		s.logger.Debug("token_parse_failed", zap.String("error", logger.SanitizeError(err)))
		return time.Time{}, false
	}
	exp := parsed.Expiration()
	if exp.IsZero() {
		return time.Time{}, false
	}
	return exp, true
}

// Expired reports whether the stored token's expiry has passed. Tokens without
// an expiry never expire locally.
func (s *Session) Expired(ctx context.Context) bool {
	exp, ok := s.ExpiresAt(ctx)
	if !ok {
		return false
	}
	return s.now().After(exp.Add(DefaultExpirySkew))
}
