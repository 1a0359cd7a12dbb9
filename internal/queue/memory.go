package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/assetforge/render-be/internal/domain"
)

type memoryEntry struct {
	msg         domain.DispatchMessage
	token       string
	invisibleTo time.Time
}

// MemoryQueue is an in-process queue for development and tests. It
// mimics the durable backends' delivery contract: received messages
// stay invisible for the visibility window and reappear if they are
// not acknowledged in time.
type MemoryQueue struct {
	mu         sync.Mutex
	entries    []*memoryEntry
	visibility time.Duration
}

// NewMemoryQueue creates a queue whose deliveries become receivable
// again after the given visibility window.
func NewMemoryQueue(visibility time.Duration) *MemoryQueue {
	return &MemoryQueue{visibility: visibility}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, msg domain.DispatchMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = append(q.entries, &memoryEntry{msg: msg})
	return nil
}

func (q *MemoryQueue) Receive(ctx context.Context, maxWait time.Duration) (*Delivery, error) {
	deadline := time.Now().Add(maxWait)
	for {
		if d := q.tryReceive(); d != nil {
			return d, nil
		}

		if !time.Now().Before(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (q *MemoryQueue) tryReceive() *Delivery {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for _, e := range q.entries {
		if e.invisibleTo.After(now) {
			continue
		}

		// A fresh token per delivery, so an expired token from an
		// earlier attempt cannot remove a redelivered message.
		e.token = uuid.NewString()
		e.invisibleTo = now.Add(q.visibility)

		return &Delivery{Message: e.msg, Token: e.token}
	}

	return nil
}

func (q *MemoryQueue) Acknowledge(ctx context.Context, token string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.token == token && e.invisibleTo.After(time.Now()) {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}

	// Expired or unknown tokens are ignored, matching SQS semantics.
	return nil
}

// Len reports the number of messages still held, visible or not.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
