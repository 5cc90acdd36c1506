package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/benvon/smart-todo-client/internal/models"
)

func todosPath(userID string) string {
	return "/" + url.PathEscape(userID) + "/todos"
}

func todoPath(userID, todoID string) string {
	return todosPath(userID) + "/" + url.PathEscape(todoID)
}

// Register creates an account
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.RequestNoAuth(ctx, "/users/register", Options{Method: http.MethodPost, Body: req}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.RequestNoAuth(ctx, "/users/login", Options{Method: http.MethodPost, Body: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTodos returns all todos of userID in server order
func (c *Client) ListTodos(ctx context.Context, userID string) (*models.TodoList, error) {
	var list models.TodoList
	if err := c.Request(ctx, todosPath(userID), Options{Method: http.MethodGet}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetTodo returns a single todo
func (c *Client) GetTodo(ctx context.Context, userID, todoID string) (*models.Todo, error) {
	var todo models.Todo
	if err := c.Request(ctx, todoPath(userID, todoID), Options{Method: http.MethodGet}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// CreateTodo creates a todo and returns the server's record
func (c *Client) CreateTodo(ctx context.Context, userID string, req models.TodoCreate) (*models.Todo, error) {
	var todo models.Todo
	if err := c.Request(ctx, todosPath(userID), Options{Method: http.MethodPost, Body: req}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// UpdateTodo changes title and/or description
func (c *Client) UpdateTodo(ctx context.Context, userID, todoID string, req models.TodoUpdate) (*models.Todo, error) {
	var todo models.Todo
	if err := c.Request(ctx, todoPath(userID, todoID), Options{Method: http.MethodPut, Body: req}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo removes a todo
func (c *Client) DeleteTodo(ctx context.Context, userID, todoID string) error {
	var result models.DeleteResult
	return c.Request(ctx, todoPath(userID, todoID), Options{Method: http.MethodDelete}, &result)
}

// ToggleComplete sets the completed flag
func (c *Client) ToggleComplete(ctx context.Context, userID, todoID string, completed bool) (*models.Todo, error) {
	var todo models.Todo
	body := models.TodoToggle{Completed: completed}
	if err := c.Request(ctx, todoPath(userID, todoID)+"/complete", Options{Method: http.MethodPatch, Body: body}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// SendMessage sends a chat message to the assistant
func (c *Client) SendMessage(ctx context.Context, message string) (*models.ChatReply, error) {
	var reply models.ChatReply
	if err := c.Request(ctx, "/chat", Options{Method: http.MethodPost, Body: models.ChatRequest{Message: message}}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
