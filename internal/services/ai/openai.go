package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// OpenAIProviderName is the registry name of the OpenAI provider
	OpenAIProviderName = "openai"
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
	// DefaultMaxTodosInPrompt bounds how much of the list is sent as context
	DefaultMaxTodosInPrompt = 100
)

const systemPrompt = `You are a helpful assistant that manages a user's todo list.
Decide what the user wants and respond with valid JSON only, shaped as:
{"reply": "text shown to the user when no action is needed",
 "actions": [{"action": "add|list|update|complete|delete", "todo_id": "...", "title": "...", "description": "..."}]}
Use "add" with a title to create a task. Use "list" to show the tasks.
Use "update" with a todo_id and the new title. Use "complete" or "delete" with a todo_id.
Only use todo_id values from the provided list. Leave "actions" empty when the
request is not about the todo list and put your answer in "reply".`

// OpenAIProvider implements the AIProvider interface using OpenAI's API
type OpenAIProvider struct {
	client           openai.Client
	model            string
	maxTodosInPrompt int
	logger           *zap.Logger
	debugMode        bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithConfig creates a new OpenAI provider with a custom endpoint
func NewOpenAIProviderWithConfig(apiKey string, baseURL string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, baseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool, opts ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	}, opts...)

	logger.Info("ai_provider_configured",
		zap.String("provider", OpenAIProviderName),
		zap.String("model", model),
		zap.String("api_key", SanitizeAPIKey(apiKey)),
	)

	return &OpenAIProvider{
		client:           openai.NewClient(clientOpts...),
		model:            model,
		maxTodosInPrompt: DefaultMaxTodosInPrompt,
		logger:           logger,
		debugMode:        debugMode,
	}
}

// Name implements AIProvider
func (p *OpenAIProvider) Name() string { return OpenAIProviderName }

// Interpret asks the model for a JSON plan with the user's todos as context
func (p *OpenAIProvider) Interpret(ctx context.Context, message string, todos []models.Todo) (*Plan, error) {
	prompt, err := p.buildPrompt(message, todos)
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "interpret"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		p.logger.Warn("llm_api_error",
			zap.String("operation", "interpret"),
			zap.String("model", p.model),
			zap.Bool("rate_limited", IsRateLimitError(err)),
			zap.Bool("quota_exceeded", IsQuotaError(err)),
			zap.Error(err),
			zap.Duration("latency", latency),
		)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to interpret message: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to interpret message: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "interpret"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return parsePlan(content, todos)
}

func (p *OpenAIProvider) buildPrompt(message string, todos []models.Todo) (string, error) {
	type promptTodo struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Completed bool   `json:"completed"`
	}
	if len(todos) > p.maxTodosInPrompt && p.maxTodosInPrompt > 0 {
		todos = todos[:p.maxTodosInPrompt]
	}
	list := make([]promptTodo, 0, len(todos))
	for _, t := range todos {
		list = append(list, promptTodo{ID: t.ID, Title: t.Title, Completed: t.Completed})
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode todo context: %w", err)
	}

	var b strings.Builder
	b.WriteString("Current todos:\n")
	b.Write(encoded)
	b.WriteString("\n\nUser message:\n")
	b.WriteString(message)
	return b.String(), nil
}

// parsePlan decodes a model response, tolerating prose around the JSON
// object. Actions with unknown kinds or ids outside the list are dropped.
func parsePlan(content string, todos []models.Todo) (*Plan, error) {
	var plan Plan
	raw := content
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		start := bytes.Index([]byte(raw), []byte("{"))
		end := bytes.LastIndex([]byte(raw), []byte("}"))
		if start != -1 && end != -1 && end > start {
			raw = raw[start : end+1]
		}
		if err := json.Unmarshal([]byte(raw), &plan); err != nil {
			return nil, fmt.Errorf("failed to parse assistant response: %w", err)
		}
	}

	known := make(map[string]bool, len(todos))
	for _, t := range todos {
		known[t.ID] = true
	}

	actions := plan.Actions[:0]
	for _, a := range plan.Actions {
		if !a.Kind.Valid() {
			continue
		}
		switch a.Kind {
		case ActionAdd:
			if strings.TrimSpace(a.Title) == "" {
				continue
			}
		case ActionUpdate, ActionComplete, ActionDelete:
			if !known[a.TodoID] {
				continue
			}
		}
		actions = append(actions, a)
	}
	plan.Actions = actions

	if len(plan.Actions) == 0 && strings.TrimSpace(plan.Reply) == "" {
		return nil, fmt.Errorf("assistant response carried no reply or actions")
	}
	return &plan, nil
}
