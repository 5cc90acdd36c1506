package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/config"
)

// OpenSlot creates the slot backend selected in cfg
func OpenSlot(ctx context.Context, cfg *config.Config) (Slot, error) {
	switch cfg.TokenStore {
	case "memory":
		return NewMemorySlot(), nil
	case "redis":
		return NewRedisSlot(ctx, cfg.RedisURL)
	case "sqlite", "":
		return NewSQLiteSlot(cfg.TokenStorePath)
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

// Open builds a Session over the configured slot
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Session, error) {
	slot, err := OpenSlot(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	return New(NewTokenStore(slot, log), log, WithExpiryCheck(cfg.CheckTokenExpiry)), nil
}

// Close releases the session's slot
func (s *Session) Close() error {
	return s.store.Close()
}
