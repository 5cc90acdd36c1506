// Package chat keeps the transcript of a conversation with the todo assistant.
package chat

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/models"
)

const (
	// FallbackReply replaces any failed assistant reply
	FallbackReply = "Sorry, I encountered an error processing your request. Please try again."

	// Greeting opens a new conversation
	Greeting = "Hello! I'm your AI assistant. You can ask me to add, list, update, complete, or delete tasks."
)

// API is the chat endpoint of the API client
type API interface {
	SendMessage(ctx context.Context, message string) (*models.ChatReply, error)
}

// Identity resolves the current user id. *session.Session implements it.
type Identity interface {
	RequireUserID(ctx context.Context) (string, error)
}

// Controller owns the transcript. At most one message is in flight; Send
// ignores new messages until it resolves.
type Controller struct {
	api      API
	identity Identity
	logger   *zap.Logger
	now      func() time.Time

	busy atomic.Bool

	mu         sync.Mutex
	transcript []models.ChatTurn
	listeners  []func()
}

// Option configures a Controller
type Option func(*Controller)

// WithGreeting seeds the transcript with the assistant greeting
func WithGreeting() Option {
	return func(c *Controller) {
		c.transcript = append(c.transcript, c.newTurn(models.ChatRoleAssistant, Greeting))
	}
}

// WithClock overrides the time source used for turn timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a chat controller
func New(api API, identity Identity, log *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		identity: identity,
		logger:   logger.OrNop(log),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnChange registers fn to run after every transcript or busy change
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Send appends text as a user turn and then the assistant's reply. Blank text
// and calls made while a message is in flight are ignored and return false.
// Failures never surface as errors: they become the fallback reply.
func (c *Controller) Send(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Debug("chat_send_ignored_busy")
		return false
	}
	defer func() {
		c.busy.Store(false)
		c.notify()
	}()

	c.appendTurn(models.ChatRoleUser, text)

	reply := FallbackReply
	if resp, err := c.exchange(ctx, text); err != nil {
		c.logger.Error("chat_send_failed", zap.String("error", logger.SanitizeError(err)))
	} else {
		reply = resp
	}

	c.appendTurn(models.ChatRoleAssistant, reply)
	return true
}

func (c *Controller) exchange(ctx context.Context, text string) (string, error) {
	if _, err := c.identity.RequireUserID(ctx); err != nil {
		return "", err
	}
	resp, err := c.api.SendMessage(ctx, text)
	if err != nil {
		return "", err
	}
	c.logger.Debug("chat_reply_received",
		zap.Bool("success", resp.Success),
		zap.String("user_id", logger.SanitizeUserID(resp.UserID)),
		zap.String("response", logger.SanitizeChatContent(resp.Response)),
	)
	return resp.Response, nil
}

// Busy reports whether a message is in flight
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Transcript returns a copy of all turns in order
func (c *Controller) Transcript() []models.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatTurn, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Last returns the most recent turn
func (c *Controller) Last() (models.ChatTurn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.transcript) == 0 {
		return models.ChatTurn{}, false
	}
	return c.transcript[len(c.transcript)-1], true
}

func (c *Controller) appendTurn(role models.ChatRole, content string) {
	turn := c.newTurn(role, content)
	c.mu.Lock()
	c.transcript = append(c.transcript, turn)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) newTurn(role models.ChatRole, content string) models.ChatTurn {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return models.ChatTurn{
		ID:        id.String(),
		Role:      role,
		Content:   content,
		Timestamp: c.now(),
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	listeners := make([]func(), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, l := range listeners {
		l()
	}
}
