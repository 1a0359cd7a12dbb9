package queue

import (
	"context"
	"time"

	"github.com/assetforge/render-be/internal/domain"
)

// Delivery pairs a dequeued message with the opaque token required to
// acknowledge it. The token never travels inside the message payload.
type Delivery struct {
	Message domain.DispatchMessage
	Token   string
}

// Queue is the dispatch queue contract shared by the API and worker
// services. Delivery is at-least-once: a received message that is not
// acknowledged within the backend's visibility window becomes
// receivable again.
type Queue interface {
	// Enqueue makes the message durable before returning. A returned
	// error means nothing was enqueued.
	Enqueue(ctx context.Context, msg domain.DispatchMessage) error

	// Receive waits up to maxWait for a message. It returns (nil, nil)
	// when the queue stayed empty for the whole window.
	Receive(ctx context.Context, maxWait time.Duration) (*Delivery, error)

	// Acknowledge removes the delivery identified by token from the
	// queue. Acknowledging an expired token is not an error.
	Acknowledge(ctx context.Context, token string) error
}
