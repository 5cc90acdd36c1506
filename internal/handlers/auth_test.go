package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap/zaptest"

	"github.com/benvon/smart-todo-client/internal/database"
	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/services/auth"
)

type storedUser struct {
	user models.User
	hash string
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]storedUser
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.user.Email == user.Email {
			return database.ErrEmailTaken
		}
		if u.user.Username == user.Username {
			return database.ErrUsernameTaken
		}
	}
	s.users[user.Email] = storedUser{user: *user, hash: hash}
	return nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, "", database.ErrNotFound
	}
	return &u.user, u.hash, nil
}

func newAuthHandler(t *testing.T) (*AuthHandler, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	hash, err := auth.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	store := &fakeUserStore{users: map[string]storedUser{
		"alice@example.com": {user: models.User{ID: "alice-id", Email: "alice@example.com", Username: "alice"}, hash: hash},
	}}
	return NewAuthHandler(store, tokens, zaptest.NewLogger(t)), tokens
}

func TestAuthHandler_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "new user",
			body:       `{"username":"bob","email":"Bob@Example.com","password":"pw"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:        "duplicate email",
			body:        `{"username":"alice2","email":"alice@example.com","password":"pw"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "A user with this email already exists",
		},
		{
			name:        "duplicate username",
			body:        `{"username":"alice","email":"other@example.com","password":"pw"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "A user with this username already exists",
		},
		{
			name:       "invalid email",
			body:       `{"username":"carol","email":"not-an-email","password":"pw"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing password",
			body:       `{"username":"carol","email":"carol@example.com"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, _ := newAuthHandler(t)
			rr := serve(h.RegisterRoutes, nil, http.MethodPost, "/register", tt.body)

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				body := decodeError(t, rr)
				if tt.wantMessage != "" && body.Message != tt.wantMessage {
					t.Errorf("Expected message %q, got %q", tt.wantMessage, body.Message)
				}
				return
			}

			var user models.User
			if err := json.NewDecoder(rr.Body).Decode(&user); err != nil {
				t.Fatalf("decode user: %v", err)
			}
			if user.ID == "" || user.Email != "bob@example.com" || user.Username != "bob" {
				t.Errorf("Unexpected user %+v", user)
			}
			if strings.Contains(rr.Body.String(), "password") {
				t.Error("Response leaks password material")
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid credentials", body: `{"email":"ALICE@example.com","password":"hunter22"}`, wantStatus: http.StatusOK},
		{name: "wrong password", body: `{"email":"alice@example.com","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "unknown email", body: `{"email":"nobody@example.com","password":"hunter22"}`, wantStatus: http.StatusUnauthorized},
		{name: "missing fields", body: `{}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, tokens := newAuthHandler(t)
			rr := serve(h.RegisterRoutes, nil, http.MethodPost, "/login", tt.body)

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if body := decodeError(t, rr); body.Message != "Incorrect email or password" {
					t.Errorf("Unexpected message %q", body.Message)
				}
				return
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp models.LoginResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode login: %v", err)
			}
			if resp.TokenType != "bearer" || resp.User.ID != "alice-id" {
				t.Errorf("Unexpected login response %+v", resp)
			}
			claims, err := tokens.Verify(resp.AccessToken)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if claims.Sub != "alice-id" || claims.Email != "alice@example.com" {
				t.Errorf("Unexpected claims %+v", claims)
			}
		})
	}
}

func TestAuthHandler_GetMe(t *testing.T) {
	t.Parallel()

	h, _ := newAuthHandler(t)
	register := func(r *mux.Router) { h.RegisterProtectedRoutes(r) }

	rr := serve(register, nil, http.MethodGet, "/me", "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without user, got %d", rr.Code)
	}

	rr = serve(register, &models.User{ID: "alice-id", Email: "alice@example.com"}, http.MethodGet, "/me", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"id":"alice-id"`) {
		t.Errorf("Unexpected body %s", rr.Body.String())
	}
}
