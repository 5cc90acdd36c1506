package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-todo-client/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user with its password hash. ErrEmailTaken or
// ErrUsernameTaken is returned when a unique value is in use; both match
// ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User, passwordHash string) error {
	checks := []struct {
		column string
		value  string
		err    error
	}{
		{"email", user.Email, ErrEmailTaken},
		{"username", user.Username, ErrUsernameTaken},
	}
	for _, c := range checks {
		var taken int
		err := r.db.QueryRowContext(ctx,
			r.db.rebind(`SELECT COUNT(*) FROM users WHERE `+c.column+` = ?`),
			c.value,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if taken > 0 {
			return c.err
		}
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		r.db.rebind(`INSERT INTO users (id, email, username, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`),
		user.ID, user.Email, user.Username, passwordHash, formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt = models.NewTimestamp(now)
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, _, err := r.get(ctx, `WHERE id = ?`, id)
	return user, err
}

// GetByEmail retrieves a user and password hash by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	return r.get(ctx, `WHERE email = ?`, email)
}

func (r *UserRepository) get(ctx context.Context, where string, arg any) (*models.User, string, error) {
	user := &models.User{}
	var hash, created string
	err := r.db.QueryRowContext(ctx,
		r.db.rebind(`SELECT id, email, username, password_hash, created_at FROM users `+where),
		arg,
	).Scan(&user.ID, &user.Email, &user.Username, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("user %w", ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}
	createdAt, err := parseTime(created)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse created_at: %w", err)
	}
	user.CreatedAt = models.NewTimestamp(createdAt)
	return user, hash, nil
}
