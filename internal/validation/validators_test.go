package validation

import (
	"errors"
	"testing"

	"github.com/benvon/smart-todo-client/internal/models"
)

func strPtr(s string) *string { return &s }

func TestTodoCreate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{"plain title", "Buy milk", false},
		{"empty title", "", true},
		{"whitespace title", "  \t ", true},
		{"padded title", "  Buy milk ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := TodoCreate(models.TodoCreate{Title: tt.title})
			if (err != nil) != tt.wantErr {
				t.Errorf("TodoCreate(%q) error = %v, wantErr %v", tt.title, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrTitleRequired) {
				t.Errorf("error = %v, want ErrTitleRequired", err)
			}
		})
	}
}

func TestTodoUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     models.TodoUpdate
		wantErr bool
	}{
		{"nothing set", models.TodoUpdate{}, false},
		{"description only", models.TodoUpdate{Description: strPtr("")}, false},
		{"new title", models.TodoUpdate{Title: strPtr("renamed")}, false},
		{"blank title", models.TodoUpdate{Title: strPtr("   ")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := TodoUpdate(tt.req); (err != nil) != tt.wantErr {
				t.Errorf("TodoUpdate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   any
		wantMsg string
	}{
		{"valid register", models.RegisterRequest{Username: "alice", Email: "a@b.co", Password: "pw"}, ""},
		{"missing username", models.RegisterRequest{Email: "a@b.co", Password: "pw"}, "username is required"},
		{"bad email", models.RegisterRequest{Username: "alice", Email: "nope", Password: "pw"}, "email must be a valid email address"},
		{"blank chat message", models.ChatRequest{Message: "  "}, "message is required"},
		{"missing login password", models.LoginRequest{Email: "a@b.co"}, "password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.input)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("Struct() error = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantMsg {
				t.Errorf("Struct() error = %v, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims", "  hello  ", "hello"},
		{"drops control characters", "a\x00b\x07c", "abc"},
		{"keeps newline and tab", "a\nb\tc", "a\nb\tc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
