package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/models"
	"go.uber.org/zap"
)

// TodoStore is the subset of todo operations the assistant can perform on
// behalf of a user.
type TodoStore interface {
	List(ctx context.Context, userID string) ([]models.Todo, error)
	Create(ctx context.Context, userID string, req models.TodoCreate) (*models.Todo, error)
	Update(ctx context.Context, userID, id string, req models.TodoUpdate) (*models.Todo, error)
	SetCompleted(ctx context.Context, userID, id string, completed bool) (*models.Todo, error)
	Delete(ctx context.Context, userID, id string) error
}

// Assistant answers chat messages by asking a provider for a plan and running
// it against the user's todos. A failing provider falls back to the rules.
type Assistant struct {
	provider AIProvider
	fallback AIProvider
	store    TodoStore
	logger   *zap.Logger
}

// NewAssistant creates an assistant. A nil provider means rules only.
func NewAssistant(provider AIProvider, store TodoStore, log *zap.Logger) *Assistant {
	rules := NewRulesProvider()
	if provider == nil {
		provider = rules
	}
	return &Assistant{
		provider: provider,
		fallback: rules,
		store:    store,
		logger:   logger.OrNop(log),
	}
}

// Provider returns the name of the primary provider
func (a *Assistant) Provider() string {
	return a.provider.Name()
}

// Respond handles one chat message for userID and returns the reply text
func (a *Assistant) Respond(ctx context.Context, userID, message string) (string, error) {
	todos, err := a.store.List(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load todos: %w", err)
	}

	plan, err := a.provider.Interpret(ctx, message, todos)
	if err != nil {
		if a.provider == a.fallback {
			return "", err
		}
		a.logger.Warn("assistant_provider_failed",
			zap.String("provider", a.provider.Name()),
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.String("error", logger.SanitizeError(err)),
		)
		plan, err = a.fallback.Interpret(ctx, message, todos)
		if err != nil {
			return "", err
		}
	}

	if len(plan.Actions) == 0 {
		return plan.Reply, nil
	}

	replies := make([]string, 0, len(plan.Actions))
	for _, action := range plan.Actions {
		reply, err := a.run(ctx, userID, action, todos)
		if err != nil {
			return "", fmt.Errorf("failed to %s task: %w", action.Kind, err)
		}
		replies = append(replies, reply)
	}
	return strings.Join(replies, "\n"), nil
}

func (a *Assistant) run(ctx context.Context, userID string, action Action, todos []models.Todo) (string, error) {
	switch action.Kind {
	case ActionAdd:
		todo, err := a.store.Create(ctx, userID, models.TodoCreate{Title: action.Title, Description: action.Description})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Task '%s' added successfully", todo.Title), nil

	case ActionList:
		// Re-read so earlier actions in the same plan are reflected
		current, err := a.store.List(ctx, userID)
		if err != nil {
			return "", err
		}
		return FormatTaskList(current), nil

	case ActionUpdate:
		title := action.Title
		todo, err := a.store.Update(ctx, userID, action.TodoID, models.TodoUpdate{Title: &title, Description: action.Description})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Task '%s' updated successfully", todo.Title), nil

	case ActionComplete:
		todo, err := a.store.SetCompleted(ctx, userID, action.TodoID, true)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Task '%s' marked as completed", todo.Title), nil

	case ActionDelete:
		title := titleOf(todos, action.TodoID)
		if err := a.store.Delete(ctx, userID, action.TodoID); err != nil {
			return "", err
		}
		return fmt.Sprintf("Task '%s' deleted successfully", title), nil
	}

	return "", errors.New("unknown action " + string(action.Kind))
}

// FormatTaskList renders todos the way the assistant lists them
func FormatTaskList(todos []models.Todo) string {
	if len(todos) == 0 {
		return NoTasksReply
	}
	var b strings.Builder
	b.WriteString("Your tasks:")
	for _, t := range todos {
		status := "pending"
		if t.Completed {
			status = "completed"
		}
		fmt.Fprintf(&b, "\n- %s (%s)", t.Title, status)
	}
	return b.String()
}

func titleOf(todos []models.Todo, id string) string {
	for _, t := range todos {
		if t.ID == id {
			return t.Title
		}
	}
	return id
}
