package queue

import (
	"context"
)

// MessageInterface defines the interface for consumed messages
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetEvent() *Event
}

// Publisher sends todo events. Publishing is best effort: callers log failures
// and carry on.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error

	// Close releases the connection
	Close() error

	// HealthCheck verifies the publisher can still deliver
	HealthCheck(ctx context.Context) error
}

// Consumer delivers published events to a worker
type Consumer interface {
	// Consume returns a channel of messages. Each message must be acked or
	// nacked. The channels close when ctx is cancelled or the connection drops.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	Close() error
}
