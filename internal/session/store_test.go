package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

func newSlots(t *testing.T) map[string]Slot {
	t.Helper()

	slots := map[string]Slot{"memory": NewMemorySlot()}

	sqliteSlot, err := NewSQLiteSlot(filepath.Join(t.TempDir(), "nested", "session.db"))
	if err != nil {
		t.Fatalf("NewSQLiteSlot() error = %v", err)
	}
	slots["sqlite"] = sqliteSlot

	if url := os.Getenv("TODO_TEST_REDIS_URL"); url != "" {
		redisSlot, err := NewRedisSlot(context.Background(), url)
		if err != nil {
			t.Fatalf("NewRedisSlot() error = %v", err)
		}
		redisSlot.prefix = "smart-todo-test:" + t.Name() + ":"
		slots["redis"] = redisSlot
	}

	t.Cleanup(func() {
		for _, s := range slots {
			_ = s.Close()
		}
	})
	return slots
}

func TestTokenStore_Lifecycle(t *testing.T) {
	t.Parallel()

	for name, slot := range newSlots(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := NewTokenStore(slot, zaptest.NewLogger(t))
			t.Cleanup(func() { _ = store.RemoveToken(ctx) })

			if store.IsAuthenticated(ctx) {
				t.Fatal("Expected fresh store to be unauthenticated")
			}
			if _, ok := store.GetToken(ctx); ok {
				t.Fatal("Expected no token in fresh store")
			}

			if err := store.SetToken(ctx, "first.token.value"); err != nil {
				t.Fatalf("SetToken() error = %v", err)
			}
			if got, ok := store.GetToken(ctx); !ok || got != "first.token.value" {
				t.Errorf("GetToken() = %q, %v, want first.token.value, true", got, ok)
			}
			if !store.IsAuthenticated(ctx) {
				t.Error("Expected store to be authenticated after SetToken")
			}

			if err := store.SetToken(ctx, "second"); err != nil {
				t.Fatalf("SetToken() overwrite error = %v", err)
			}
			if got, _ := store.GetToken(ctx); got != "second" {
				t.Errorf("GetToken() after overwrite = %q, want second", got)
			}

			if err := store.RemoveToken(ctx); err != nil {
				t.Fatalf("RemoveToken() error = %v", err)
			}
			if store.IsAuthenticated(ctx) {
				t.Error("Expected store to be unauthenticated after RemoveToken")
			}
			if err := store.RemoveToken(ctx); err != nil {
				t.Errorf("RemoveToken() on empty store error = %v, want nil", err)
			}
		})
	}
}

func TestTokenStore_EmptyTokenIsNotAuthenticated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewTokenStore(NewMemorySlot(), nil)
	if err := store.SetToken(ctx, ""); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if store.IsAuthenticated(ctx) {
		t.Error("Expected empty token to count as unauthenticated")
	}
}

func TestSQLiteSlot_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	first, err := NewSQLiteSlot(path)
	if err != nil {
		t.Fatalf("NewSQLiteSlot() error = %v", err)
	}
	if err := first.Set(ctx, TokenKey, "persisted"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := NewSQLiteSlot(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = second.Close() }()

	got, ok, err := second.Get(ctx, TokenKey)
	if err != nil || !ok || got != "persisted" {
		t.Errorf("Get() = %q, %v, %v, want persisted, true, nil", got, ok, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Errorf("Expected slot file to be private, got %v", perm)
	}
}

func TestNewSQLiteSlot_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := NewSQLiteSlot("  "); err == nil {
		t.Error("Expected error for empty path")
	}
}
