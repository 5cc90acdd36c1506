package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/benvon/smart-todo-client/internal/models"
)

// EventType names a todo lifecycle event. It doubles as the routing key.
type EventType string

const (
	EventTodoCreated   EventType = "todo.created"
	EventTodoUpdated   EventType = "todo.updated"
	EventTodoCompleted EventType = "todo.completed"
	EventTodoDeleted   EventType = "todo.deleted"
	EventTodosFetched  EventType = "user.todos.fetched"
)

// Event is published after a todo changes
type Event struct {
	ID        uuid.UUID    `json:"id"`
	Type      EventType    `json:"type"`
	UserID    string       `json:"user_id"`
	TodoID    string       `json:"todo_id,omitempty"`
	Todo      *models.Todo `json:"todo,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewEvent creates an event for userID. todo may be nil.
func NewEvent(eventType EventType, userID string, todo *models.Todo) *Event {
	e := &Event{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Todo:      todo,
		CreatedAt: time.Now().UTC(),
	}
	if todo != nil {
		e.TodoID = todo.ID
	}
	return e
}

// ToggleEventType returns the event for a completion change
func ToggleEventType(completed bool) EventType {
	if completed {
		return EventTodoCompleted
	}
	return EventTodoUpdated
}
