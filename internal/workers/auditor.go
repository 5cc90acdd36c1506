package workers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	logpkg "github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/queue"
)

// EventAuditor consumes todo lifecycle events and writes them to the audit log
type EventAuditor struct {
	logger *zap.Logger

	mu     sync.Mutex
	counts map[queue.EventType]int
}

// NewEventAuditor creates an auditor
func NewEventAuditor(logger *zap.Logger) *EventAuditor {
	return &EventAuditor{
		logger: logpkg.OrNop(logger),
		counts: make(map[queue.EventType]int),
	}
}

// ProcessMessage records one event and acknowledges it. Messages without an
// event or with an unknown type are dead-lettered.
func (a *EventAuditor) ProcessMessage(_ context.Context, msg queue.MessageInterface) error {
	event := msg.GetEvent()
	if event == nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Warn("event_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("message has no event")
	}

	switch event.Type {
	case queue.EventTodoCreated, queue.EventTodoUpdated, queue.EventTodoCompleted,
		queue.EventTodoDeleted, queue.EventTodosFetched:
	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			a.logger.Warn("event_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown event type: %s", logpkg.SanitizeString(string(event.Type), logpkg.MaxGeneralStringLength))
	}

	a.logger.Info("todo_event",
		zap.String("event_id", event.ID.String()),
		zap.String("type", string(event.Type)),
		zap.String("user_id", logpkg.SanitizeUserID(event.UserID)),
		zap.String("todo_id", logpkg.SanitizeString(event.TodoID, logpkg.MaxGeneralStringLength)),
		zap.Time("created_at", event.CreatedAt),
	)

	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack event: %w", err)
	}

	a.mu.Lock()
	a.counts[event.Type]++
	a.mu.Unlock()
	return nil
}

// Counts returns how many events of each type have been recorded
func (a *EventAuditor) Counts() map[queue.EventType]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[queue.EventType]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}

// Run processes messages until ctx is done or the message channel closes.
// Consumer errors are logged and do not stop the loop.
func (a *EventAuditor) Run(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				a.logger.Info("message_channel_closed")
				return
			}
			if err := a.ProcessMessage(ctx, msg); err != nil {
				a.logger.Error("failed_to_process_event", zap.Error(err))
			}
		}
	}
}
