package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/middleware"
	"github.com/benvon/smart-todo-client/internal/models"
)

// TodoService is the todo logic behind the REST routes
type TodoService interface {
	List(ctx context.Context, userID string) ([]models.Todo, error)
	Get(ctx context.Context, userID, id string) (*models.Todo, error)
	Create(ctx context.Context, userID string, req models.TodoCreate) (*models.Todo, error)
	Update(ctx context.Context, userID, id string, req models.TodoUpdate) (*models.Todo, error)
	SetCompleted(ctx context.Context, userID, id string, completed bool) (*models.Todo, error)
	Delete(ctx context.Context, userID, id string) error
}

// TodoHandler handles todo-related requests
type TodoHandler struct {
	todos  TodoService
	logger *zap.Logger
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todos TodoService, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{todos: todos, logger: logpkg.OrNop(logger)}
}

// RegisterRoutes registers todo routes on an authenticated router. Every
// route is scoped by the user id in the path.
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{user_id}/todos", h.ListTodos).Methods("GET")
	r.HandleFunc("/{user_id}/todos", h.CreateTodo).Methods("POST")
	r.HandleFunc("/{user_id}/todos/{todo_id}", h.GetTodo).Methods("GET")
	r.HandleFunc("/{user_id}/todos/{todo_id}", h.UpdateTodo).Methods("PUT")
	r.HandleFunc("/{user_id}/todos/{todo_id}", h.DeleteTodo).Methods("DELETE")
	r.HandleFunc("/{user_id}/todos/{todo_id}/complete", h.CompleteTodo).Methods("PATCH")
}

// owner returns the path user id when it matches the authenticated user.
// Otherwise the response has been written and ok is false.
func (h *TodoHandler) owner(w http.ResponseWriter, r *http.Request, action string) (string, bool) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, r, http.StatusUnauthorized, "Not authenticated")
		return "", false
	}
	if mux.Vars(r)["user_id"] != user.ID {
		respondJSONError(w, r, http.StatusForbidden, "Not authorized to "+action+" this user's todos")
		return "", false
	}
	return user.ID, true
}

// ListTodos lists todos for the authenticated user
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r, "access")
	if !ok {
		return
	}

	todos, err := h.todos.List(r.Context(), userID)
	if err != nil {
		respondTodoError(w, r, h.logger, "list_todos", err)
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}

	respondJSON(w, http.StatusOK, models.TodoList{Todos: todos, Count: len(todos)})
}

// CreateTodo creates a todo
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r, "create")
	if !ok {
		return
	}

	var req models.TodoCreate
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	todo, err := h.todos.Create(r.Context(), userID, req)
	if err != nil {
		respondTodoError(w, r, h.logger, "create_todo", err)
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// GetTodo returns one todo
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r, "access")
	if !ok {
		return
	}

	todo, err := h.todos.Get(r.Context(), userID, mux.Vars(r)["todo_id"])
	if err != nil {
		respondTodoError(w, r, h.logger, "get_todo", err)
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// UpdateTodo applies a partial update
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r, "update")
	if !ok {
		return
	}

	var req models.TodoUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	todo, err := h.todos.Update(r.Context(), userID, mux.Vars(r)["todo_id"], req)
	if err != nil {
		respondTodoError(w, r, h.logger, "update_todo", err)
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// DeleteTodo deletes a todo
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r, "delete")
	if !ok {
		return
	}

	if err := h.todos.Delete(r.Context(), userID, mux.Vars(r)["todo_id"]); err != nil {
		respondTodoError(w, r, h.logger, "delete_todo", err)
		return
	}

	respondJSON(w, http.StatusOK, models.DeleteResult{Success: true, Message: "Todo deleted successfully"})
}

// CompleteTodo sets the completion flag to the value in the body
func (h *TodoHandler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.owner(w, r, "update")
	if !ok {
		return
	}

	var req models.TodoToggle
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	todo, err := h.todos.SetCompleted(r.Context(), userID, mux.Vars(r)["todo_id"], req.Completed)
	if err != nil {
		respondTodoError(w, r, h.logger, "complete_todo", err)
		return
	}

	respondJSON(w, http.StatusOK, todo)
}
