package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/queue"
)

// mockMessage records how a message was settled
type mockMessage struct {
	event   *queue.Event
	ackErr  error
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return m.ackErr
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *mockMessage) GetEvent() *queue.Event { return m.event }

var _ queue.MessageInterface = (*mockMessage)(nil)

func TestEventAuditor_ProcessMessage(t *testing.T) {
	t.Parallel()

	todo := &models.Todo{ID: "todo-1", UserID: "user-1", Title: "Task A"}

	tests := []struct {
		name      string
		msg       *mockMessage
		wantErr   bool
		wantAck   bool
		wantNack  bool
		wantCount int
	}{
		{
			name:      "known event",
			msg:       &mockMessage{event: queue.NewEvent(queue.EventTodoCreated, "user-1", todo)},
			wantAck:   true,
			wantCount: 1,
		},
		{
			name:      "fetch event without todo",
			msg:       &mockMessage{event: queue.NewEvent(queue.EventTodosFetched, "user-1", nil)},
			wantAck:   true,
			wantCount: 1,
		},
		{
			name:     "unknown type is dead-lettered",
			msg:      &mockMessage{event: queue.NewEvent(queue.EventType("todo.exploded"), "user-1", todo)},
			wantErr:  true,
			wantNack: true,
		},
		{
			name:     "missing event is dead-lettered",
			msg:      &mockMessage{},
			wantErr:  true,
			wantNack: true,
		},
		{
			name:    "ack failure",
			msg:     &mockMessage{event: queue.NewEvent(queue.EventTodoDeleted, "user-1", todo), ackErr: errors.New("channel closed")},
			wantErr: true,
			wantAck: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			a := NewEventAuditor(zap.New(core))

			err := a.ProcessMessage(context.Background(), tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ProcessMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.msg.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", tt.msg.acked, tt.wantAck)
			}
			if tt.msg.nacked != tt.wantNack {
				t.Errorf("nacked = %v, want %v", tt.msg.nacked, tt.wantNack)
			}
			if tt.msg.requeue {
				t.Error("messages must never be requeued")
			}

			total := 0
			for _, n := range a.Counts() {
				total += n
			}
			if total != tt.wantCount {
				t.Errorf("counted %d events, want %d", total, tt.wantCount)
			}
			if tt.wantAck && !tt.wantErr {
				entries := logs.FilterMessage("todo_event").All()
				if len(entries) != 1 {
					t.Fatalf("Expected one todo_event log entry, got %d", len(entries))
				}
				if got := entries[0].ContextMap()["type"]; got != string(tt.msg.event.Type) {
					t.Errorf("logged type %v, want %s", got, tt.msg.event.Type)
				}
			}
		})
	}
}

func TestEventAuditor_RunStops(t *testing.T) {
	t.Parallel()

	a := NewEventAuditor(nil)

	t.Run("closed message channel", func(t *testing.T) {
		msgs := make(chan *queue.Message)
		errs := make(chan error, 1)
		errs <- errors.New("delivery channel closed")
		close(errs)
		close(msgs)

		done := make(chan struct{})
		go func() {
			a.Run(context.Background(), msgs, errs)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after the message channel closed")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan struct{})
		go func() {
			a.Run(ctx, make(chan *queue.Message), make(chan error))
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancellation")
		}
	})
}
