// Package todos holds the client-side state of one user's todo collection and
// reconciles it with the server.
package todos

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/validation"
)

// User-facing error messages, one per operation
const (
	MsgLoadFailed   = "Failed to load todos"
	MsgAddFailed    = "Failed to add todo"
	MsgUpdateFailed = "Failed to update todo"
	MsgDeleteFailed = "Failed to delete todo"
)

// State is the lifecycle of the collection
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// API is the subset of the API client the controller uses
type API interface {
	ListTodos(ctx context.Context, userID string) (*models.TodoList, error)
	CreateTodo(ctx context.Context, userID string, req models.TodoCreate) (*models.Todo, error)
	UpdateTodo(ctx context.Context, userID, todoID string, req models.TodoUpdate) (*models.Todo, error)
	DeleteTodo(ctx context.Context, userID, todoID string) error
	ToggleComplete(ctx context.Context, userID, todoID string, completed bool) (*models.Todo, error)
}

// Identity resolves the current user id. *session.Session implements it.
type Identity interface {
	RequireUserID(ctx context.Context) (string, error)
}

// Controller owns the local todo collection. Methods are safe for concurrent
// use; the lock is never held across a network call, so each response is
// applied to the collection as it stands when the response arrives.
type Controller struct {
	api      API
	identity Identity
	logger   *zap.Logger

	mu        sync.Mutex
	todos     []models.Todo
	state     State
	loading   int
	errMsg    string
	pending   map[string]int
	listeners []func()
}

// New creates a controller in the uninitialized state
func New(api API, identity Identity, log *zap.Logger) *Controller {
	return &Controller{
		api:      api,
		identity: identity,
		logger:   logger.OrNop(log),
		pending:  make(map[string]int),
	}
}

// OnChange registers fn to run after every state change. Listeners run on
// the goroutine that made the change, without the controller lock held.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Load replaces the collection with the server's list. On failure the
// previous collection is kept and Err reports MsgLoadFailed.
func (c *Controller) Load(ctx context.Context) error {
	c.update(func() {
		c.loading++
		c.state = StateLoading
	})
	defer c.update(func() {
		c.loading--
	})

	userID, err := c.identity.RequireUserID(ctx)
	if err != nil {
		c.loadFailed(err)
		return err
	}

	list, err := c.api.ListTodos(ctx, userID)
	if err != nil {
		c.loadFailed(err)
		return fmt.Errorf("load todos: %w", err)
	}

	todos := make([]models.Todo, len(list.Todos))
	copy(todos, list.Todos)
	c.update(func() {
		c.todos = todos
		c.state = StateReady
		c.errMsg = ""
	})
	c.logger.Debug("todos_loaded", zap.Int("count", len(todos)))
	return nil
}

func (c *Controller) loadFailed(err error) {
	c.update(func() {
		c.state = StateError
		c.errMsg = MsgLoadFailed
	})
	c.logger.Error("load_todos_failed", zap.String("error", logger.SanitizeError(err)))
}

// Add creates a todo and appends the server's record. A blank title is
// rejected before any request is made.
func (c *Controller) Add(ctx context.Context, title string, description *string) (*models.Todo, error) {
	req := models.TodoCreate{Title: title, Description: description}
	if err := validation.TodoCreate(req); err != nil {
		c.fail(MsgAddFailed, "add_todo_failed", err)
		return nil, err
	}

	userID, err := c.identity.RequireUserID(ctx)
	if err != nil {
		c.fail(MsgAddFailed, "add_todo_failed", err)
		return nil, err
	}

	todo, err := c.api.CreateTodo(ctx, userID, req)
	if err != nil {
		c.fail(MsgAddFailed, "add_todo_failed", err)
		return nil, fmt.Errorf("add todo: %w", err)
	}

	c.update(func() {
		c.todos = append(c.todos, *todo)
	})
	return todo, nil
}

// Update sends the changed fields and replaces the local record with the
// server's version.
func (c *Controller) Update(ctx context.Context, id string, fields models.TodoUpdate) (*models.Todo, error) {
	if err := validation.TodoUpdate(fields); err != nil {
		c.fail(MsgUpdateFailed, "update_todo_failed", err)
		return nil, err
	}

	userID, err := c.identity.RequireUserID(ctx)
	if err != nil {
		c.fail(MsgUpdateFailed, "update_todo_failed", err)
		return nil, err
	}

	done := c.track(id)
	todo, err := c.api.UpdateTodo(ctx, userID, id, fields)
	done()
	if err != nil {
		c.fail(MsgUpdateFailed, "update_todo_failed", err)
		return nil, fmt.Errorf("update todo: %w", err)
	}

	c.update(func() { c.replace(id, *todo) })
	return todo, nil
}

// Remove deletes a todo and drops it from the collection once the server
// confirms. An id that is not in the collection leaves it untouched.
func (c *Controller) Remove(ctx context.Context, id string) error {
	userID, err := c.identity.RequireUserID(ctx)
	if err != nil {
		c.fail(MsgDeleteFailed, "delete_todo_failed", err)
		return err
	}

	done := c.track(id)
	err = c.api.DeleteTodo(ctx, userID, id)
	done()
	if err != nil {
		c.fail(MsgDeleteFailed, "delete_todo_failed", err)
		return fmt.Errorf("delete todo: %w", err)
	}

	c.update(func() {
		kept := c.todos[:0:0]
		for _, t := range c.todos {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		c.todos = kept
	})
	return nil
}

// ToggleComplete flips the completed flag of a local todo. It returns
// (nil, nil) without touching the network when id is not in the collection.
func (c *Controller) ToggleComplete(ctx context.Context, id string) (*models.Todo, error) {
	userID, err := c.identity.RequireUserID(ctx)
	if err != nil {
		c.fail(MsgUpdateFailed, "toggle_todo_failed", err)
		return nil, err
	}

	current, ok := c.Get(id)
	if !ok {
		return nil, nil
	}

	done := c.track(id)
	todo, err := c.api.ToggleComplete(ctx, userID, id, !current.Completed)
	done()
	if err != nil {
		c.fail(MsgUpdateFailed, "toggle_todo_failed", err)
		return nil, fmt.Errorf("toggle todo: %w", err)
	}

	c.update(func() { c.replace(id, *todo) })
	return todo, nil
}

// Todos returns a copy of the collection in server order
func (c *Controller) Todos() []models.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Todo, len(c.todos))
	copy(out, c.todos)
	return out
}

// Get returns the local record for id
func (c *Controller) Get(id string) (models.Todo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.todos {
		if t.ID == id {
			return t, true
		}
	}
	return models.Todo{}, false
}

// State returns the lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading reports whether a load is in flight
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

// Err returns the last user-facing error message, or "" if none
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Pending returns the number of in-flight mutations for id
func (c *Controller) Pending(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[id]
}

// track marks a mutation of id as in flight and returns the func that
// resolves it
func (c *Controller) track(id string) func() {
	c.update(func() { c.pending[id]++ })
	return func() {
		c.update(func() {
			if c.pending[id] <= 1 {
				delete(c.pending, id)
				return
			}
			c.pending[id]--
		})
	}
}

// replace swaps the record for id with the server's version. Must be called
// with c.mu held.
func (c *Controller) replace(id string, todo models.Todo) {
	for i := range c.todos {
		if c.todos[i].ID == id {
			c.todos[i] = todo
		}
	}
}

func (c *Controller) fail(msg, event string, err error) {
	c.update(func() { c.errMsg = msg })
	c.logger.Error(event, zap.String("error", logger.SanitizeError(err)))
}

// update applies fn under the lock and then notifies listeners
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	listeners := make([]func(), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l()
	}
}

// Summary returns a short progress string such as "2 of 5 done"
func (c *Controller) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	done := 0
	for _, t := range c.todos {
		if t.Completed {
			done++
		}
	}
	return fmt.Sprintf("%d of %d done", done, len(c.todos))
}
