package queue

import (
	"context"

	"go.uber.org/zap"

	logpkg "github.com/benvon/smart-todo-client/internal/logger"
)

// LogPublisher writes events to the log. It is used when no broker is
// configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a log publisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logpkg.OrNop(logger)}
}

// Publish implements Publisher
func (p *LogPublisher) Publish(_ context.Context, event *Event) error {
	p.logger.Info("todo_event",
		zap.String("event_id", event.ID.String()),
		zap.String("type", string(event.Type)),
		zap.String("user_id", logpkg.SanitizeUserID(event.UserID)),
		zap.String("todo_id", event.TodoID),
	)
	return nil
}

// Close implements Publisher
func (p *LogPublisher) Close() error { return nil }

// HealthCheck implements Publisher
func (p *LogPublisher) HealthCheck(context.Context) error { return nil }

var (
	_ Publisher = (*LogPublisher)(nil)
	_ Publisher = (*RabbitMQQueue)(nil)
	_ Consumer  = (*RabbitMQQueue)(nil)
)
