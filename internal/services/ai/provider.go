package ai

import (
	"context"

	"github.com/benvon/smart-todo-client/internal/models"
)

// ActionKind names a todo operation an assistant may ask for
type ActionKind string

const (
	ActionAdd      ActionKind = "add"
	ActionList     ActionKind = "list"
	ActionUpdate   ActionKind = "update"
	ActionComplete ActionKind = "complete"
	ActionDelete   ActionKind = "delete"
)

// Valid reports whether k is a known action
func (k ActionKind) Valid() bool {
	switch k {
	case ActionAdd, ActionList, ActionUpdate, ActionComplete, ActionDelete:
		return true
	}
	return false
}

// Action is one step of a plan. TodoID is required for update, complete and
// delete; Title is required for add and is the new title for update.
type Action struct {
	Kind        ActionKind `json:"action"`
	TodoID      string     `json:"todo_id,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// Plan is what a provider decided to do with a chat message. Reply is used
// verbatim when there are no actions.
type Plan struct {
	Reply   string   `json:"reply,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

// AIProvider turns a chat message into a plan against the user's current todos
type AIProvider interface {
	Name() string
	Interpret(ctx context.Context, message string, todos []models.Todo) (*Plan, error)
}

// ProviderFactory creates an AI provider based on the provider type
type ProviderFactory func(config map[string]string) (AIProvider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a registry with the built-in providers registered
func NewProviderRegistry() *ProviderRegistry {
	r := &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
	r.Register(RulesProviderName, func(map[string]string) (AIProvider, error) {
		return NewRulesProvider(), nil
	})
	r.Register(OpenAIProviderName, func(config map[string]string) (AIProvider, error) {
		if config["api_key"] == "" {
			return nil, ErrMissingAPIKey
		}
		return NewOpenAIProviderWithConfig(config["api_key"], config["base_url"], config["model"]), nil
	})
	return r
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (AIProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
