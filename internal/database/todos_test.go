package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/benvon/smart-todo-client/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New("")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func createUser(t *testing.T, db *DB, id string) {
	t.Helper()
	user := &models.User{ID: id, Email: id + "@example.com", Username: id}
	if err := NewUserRepository(db).Create(context.Background(), user, "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func TestTodoRepository_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1")
	repo := NewTodoRepository(db)

	desc := "two litres"
	todo := &models.Todo{ID: "t1", UserID: "u1", Title: "Buy milk", Description: &desc}
	if err := repo.Create(ctx, todo); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if todo.CreatedAt.IsZero() || todo.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}

	got, err := repo.GetByID(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Buy milk" || got.DescriptionOrEmpty() != "two litres" || got.Completed {
		t.Errorf("GetByID() = %+v", got)
	}
	if !got.CreatedAt.Equal(todo.CreatedAt.Time) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, todo.CreatedAt)
	}

	got.Completed = true
	got.Description = nil
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	again, _ := repo.GetByID(ctx, "u1", "t1")
	if !again.Completed || again.Description != nil {
		t.Errorf("after Update = %+v, want completed with no description", again)
	}

	if err := repo.Delete(ctx, "u1", "t1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, "u1", "t1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestTodoRepository_ScopedToOwner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1")
	createUser(t, db, "u2")
	repo := NewTodoRepository(db)

	if err := repo.Create(ctx, &models.Todo{ID: "t1", UserID: "u1", Title: "mine"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := repo.GetByID(ctx, "u2", "t1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() other user error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "u2", "t1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() other user error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(ctx, &models.Todo{ID: "t1", UserID: "u2", Title: "stolen"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() other user error = %v, want ErrNotFound", err)
	}
	list, err := repo.ListByUserID(ctx, "u2")
	if err != nil || len(list) != 0 {
		t.Errorf("ListByUserID(u2) = %v, %v, want empty", list, err)
	}
}

func TestTodoRepository_ListOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	createUser(t, db, "u1")
	repo := NewTodoRepository(db)

	for i := 0; i < 5; i++ {
		todo := &models.Todo{ID: fmt.Sprintf("t%d", i), UserID: "u1", Title: fmt.Sprintf("task %d", i)}
		if err := repo.Create(ctx, todo); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	list, err := repo.ListByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUserID() error = %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("len = %d, want 5", len(list))
	}
	for i, todo := range list {
		if want := fmt.Sprintf("t%d", i); todo.ID != want {
			t.Errorf("list[%d].ID = %q, want %q", i, todo.ID, want)
		}
	}
}

func TestNew_SQLiteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dev.db")
	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if db.Dialect() != DialectSQLite {
		t.Errorf("Dialect() = %v, want sqlite", db.Dialect())
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// Migrations are idempotent
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestDB_Rebind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect Dialect
		query   string
		want    string
	}{
		{DialectSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{DialectPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{DialectPostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		db := &DB{dialect: tt.dialect}
		if got := db.rebind(tt.query); got != tt.want {
			t.Errorf("rebind(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}
