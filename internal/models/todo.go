package models

// Todo represents a todo item as returned by the API. The ID is assigned by
// the server and is never generated locally.
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	UserID      string    `json:"user_id"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

// TodoList is the envelope returned by the list endpoint
type TodoList struct {
	Todos []Todo `json:"todos"`
	Count int    `json:"count"`
}

// TodoCreate is the body of a create request
type TodoCreate struct {
	Title       string  `json:"title" validate:"required,nonblank"`
	Description *string `json:"description,omitempty"`
}

// TodoUpdate carries the fields to change. Nil fields are left alone by the server.
type TodoUpdate struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,nonblank"`
	Description *string `json:"description,omitempty"`
}

// TodoToggle is the body of a toggle-complete request
type TodoToggle struct {
	Completed bool `json:"completed"`
}

// DeleteResult is returned by the delete endpoint
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// DescriptionOrEmpty returns the description or "" when unset
func (t Todo) DescriptionOrEmpty() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}
