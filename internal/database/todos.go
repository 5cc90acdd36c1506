package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/models"
)

// TodoRepository handles todo database operations. Every lookup is scoped to
// the owning user.
type TodoRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *DB) *TodoRepository {
	return &TodoRepository{db: db, logger: zap.NewNop()}
}

// SetLogger sets the logger for debug output
func (r *TodoRepository) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

const todoColumns = `id, user_id, title, description, completed, created_at, updated_at`

// Create inserts a todo and fills in its timestamps
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		r.db.rebind(`INSERT INTO todos (`+todoColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		todo.ID, todo.UserID, todo.Title, todo.Description, todo.Completed, formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	todo.CreatedAt = models.NewTimestamp(now)
	todo.UpdatedAt = models.NewTimestamp(now)
	return nil
}

// GetByID retrieves one todo of userID
func (r *TodoRepository) GetByID(ctx context.Context, userID, id string) (*models.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		r.db.rebind(`SELECT `+todoColumns+` FROM todos WHERE id = ? AND user_id = ?`),
		id, userID,
	)
	todo, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("todo %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// ListByUserID returns all todos of userID, oldest first
func (r *TodoRepository) ListByUserID(ctx context.Context, userID string) ([]models.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.rebind(`SELECT `+todoColumns+` FROM todos WHERE user_id = ? ORDER BY created_at, id`),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	todos := []models.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	r.logger.Debug("todos_listed",
		zap.String("user_id", userID),
		zap.Int("count", len(todos)),
	)
	return todos, nil
}

// Update writes title, description and completed back and bumps updated_at
func (r *TodoRepository) Update(ctx context.Context, todo *models.Todo) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		r.db.rebind(`UPDATE todos SET title = ?, description = ?, completed = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		todo.Title, todo.Description, todo.Completed, formatTime(now), todo.ID, todo.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("todo %w", ErrNotFound)
	}
	todo.UpdatedAt = models.NewTimestamp(now)
	return nil
}

// Delete removes one todo of userID
func (r *TodoRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		r.db.rebind(`DELETE FROM todos WHERE id = ? AND user_id = ?`),
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("todo %w", ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(s scanner) (*models.Todo, error) {
	todo := &models.Todo{}
	var description sql.NullString
	var created, updated string
	if err := s.Scan(&todo.ID, &todo.UserID, &todo.Title, &description, &todo.Completed, &created, &updated); err != nil {
		return nil, err
	}
	if description.Valid {
		d := description.String
		todo.Description = &d
	}
	createdAt, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := parseTime(updated)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	todo.CreatedAt = models.NewTimestamp(createdAt)
	todo.UpdatedAt = models.NewTimestamp(updatedAt)
	return todo, nil
}
