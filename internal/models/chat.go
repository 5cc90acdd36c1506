package models

import (
	"time"
)

// ChatRole identifies who authored a chat turn
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

// ChatTurn is one entry of a chat transcript. Turns are appended and never
// mutated; the ID is generated locally.
type ChatTurn struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is the body sent to the chat endpoint
type ChatRequest struct {
	Message string `json:"message" validate:"required,nonblank"`
}

// ChatReply is returned by the chat endpoint
type ChatReply struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	UserID   string `json:"user_id,omitempty"`
}
