package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap/zaptest"

	"github.com/benvon/smart-todo-client/internal/models"
)

func completionBody(content string) string {
	body := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   DefaultOpenAIModel,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func newFakeOpenAI(t *testing.T, status int, body string, seen *string) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			*seen = string(b)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewOpenAIProviderWithLogger("sk-test-key-123456", srv.URL, "", zaptest.NewLogger(t), true, option.WithMaxRetries(0))
}

func TestOpenAIProvider_Interpret(t *testing.T) {
	t.Parallel()

	todos := []models.Todo{{ID: "t1", Title: "Buy milk"}}
	var seen string
	p := newFakeOpenAI(t, http.StatusOK,
		completionBody(`{"actions":[{"action":"complete","todo_id":"t1"},{"action":"delete","todo_id":"ghost"}]}`),
		&seen)

	plan, err := p.Interpret(context.Background(), "I bought the milk", todos)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if len(plan.Actions) != 1 || plan.Actions[0].Kind != ActionComplete || plan.Actions[0].TodoID != "t1" {
		t.Errorf("Actions = %+v, want a single complete of t1", plan.Actions)
	}

	if !strings.Contains(seen, "Buy milk") || !strings.Contains(seen, "I bought the milk") {
		t.Errorf("request did not carry the todo context: %s", seen)
	}
	if !strings.Contains(seen, `"json_object"`) {
		t.Errorf("request did not ask for a JSON response: %s", seen)
	}
}

func TestOpenAIProvider_InterpretErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"slow down","type":"rate_limit_error","code":"rate_limit_exceeded"}}`,
		},
		{
			name:   "prose only",
			status: http.StatusOK,
			body:   completionBody("I cannot help with that"),
		},
		{
			name:   "empty plan",
			status: http.StatusOK,
			body:   completionBody(`{"actions":[]}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newFakeOpenAI(t, tt.status, tt.body, nil)
			if _, err := p.Interpret(context.Background(), "hi", nil); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestParsePlan(t *testing.T) {
	t.Parallel()

	todos := []models.Todo{{ID: "t1", Title: "Buy milk"}}

	plan, err := parsePlan("Sure! {\"reply\":\"Hi there\"} Anything else?", todos)
	if err != nil {
		t.Fatalf("parsePlan() error = %v", err)
	}
	if plan.Reply != "Hi there" {
		t.Errorf("Reply = %q, want Hi there", plan.Reply)
	}

	plan, err = parsePlan(`{"actions":[{"action":"add","title":" "},{"action":"fly"},{"action":"add","title":"Walk"},{"action":"update","todo_id":"t1","title":"Buy oat milk"}]}`, todos)
	if err != nil {
		t.Fatalf("parsePlan() error = %v", err)
	}
	if len(plan.Actions) != 2 || plan.Actions[0].Title != "Walk" || plan.Actions[1].Kind != ActionUpdate {
		t.Errorf("Actions = %+v", plan.Actions)
	}
}

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	quota := errors.New(`POST "/chat/completions": 429 Too Many Requests {"message":"out of credit","type":"insufficient_quota","code":"insufficient_quota"}`)
	apiErr := ExtractAPIError(quota)
	if apiErr == nil || !apiErr.IsPermanent || apiErr.Message != "out of credit" {
		t.Fatalf("ExtractAPIError() = %+v", apiErr)
	}
	if !IsQuotaError(apiErr) || IsRateLimitError(apiErr) {
		t.Error("Expected quota error classification")
	}

	limited := &APIError{StatusCode: 429, Message: "slow down"}
	if !IsRateLimitError(limited) || !errors.Is(limited, ErrRateLimited) {
		t.Error("Expected rate limit classification")
	}

	if ExtractAPIError(errors.New("connection refused")) != nil {
		t.Error("Expected nil for non-429 errors")
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	if got := SanitizeAPIKey("sk-1234567890"); got != "sk-1"+RedactedValue+"7890" {
		t.Errorf("SanitizeAPIKey() = %q", got)
	}
	if got := SanitizeAPIKey("short"); got != RedactedValue {
		t.Errorf("SanitizeAPIKey(short) = %q", got)
	}
	if got := SanitizePrompt("a\x00b\x1bc", false); got != "abc" {
		t.Errorf("SanitizePrompt() = %q, want abc", got)
	}
	long := strings.Repeat("é", MaxPreviewLength)
	got := SanitizeResponse(long, false)
	if !strings.HasSuffix(got, "...") || len(got) > MaxPreviewLength+3 {
		t.Errorf("SanitizeResponse() length = %d", len(got))
	}
}
