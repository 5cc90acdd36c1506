package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/benvon/smart-todo-client/internal/models"
)

type fakeVerifier map[string]string

func (f fakeVerifier) Verify(token string) (*models.JWTClaims, error) {
	sub, ok := f[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &models.JWTClaims{Sub: sub}, nil
}

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if id == "broken" {
		return nil, errors.New("database is locked")
	}
	u, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrUserNotFound)
	}
	return u, nil
}

func TestAuth(t *testing.T) {
	t.Parallel()

	verifier := fakeVerifier{"good": "u1", "orphan": "ghost", "dberr": "broken"}
	users := fakeUsers{"u1": {ID: "u1", Email: "a@example.com"}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"valid token", "Bearer good", http.StatusOK, "u1"},
		{"lowercase scheme", "bearer good", http.StatusOK, "u1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, ""},
		{"unknown subject", "Bearer orphan", http.StatusUnauthorized, ""},
		{"lookup failure", "Bearer dberr", http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if u := UserFromContext(r); u != nil {
					gotUser = u.ID
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/u1/todos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			Auth(verifier, users, zaptest.NewLogger(t))(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if gotUser != tt.wantUser {
				t.Errorf("user = %q, want %q", gotUser, tt.wantUser)
			}
			if tt.wantStatus != http.StatusOK {
				var body ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if body.Success || body.Message == "" {
					t.Errorf("error body = %+v", body)
				}
			}
		})
	}
}
