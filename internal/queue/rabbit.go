package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/assetforge/render-be/internal/domain"
	"github.com/assetforge/render-be/shared/rabbitmq"
)

// RabbitQueue is the dispatch queue backed by a durable RabbitMQ work
// queue. The channel delivery tag serves as the acknowledge token; an
// unacknowledged delivery is requeued by the broker when the channel
// drops, giving the same at-least-once behavior as a visibility window.
type RabbitQueue struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewRabbitQueue wraps an established RabbitMQ client.
func NewRabbitQueue(client *rabbitmq.Client, logger *slog.Logger) *RabbitQueue {
	return &RabbitQueue{client: client, logger: logger}
}

func (q *RabbitQueue) Enqueue(ctx context.Context, msg domain.DispatchMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode dispatch message: %w", err)
	}

	headers := amqp.Table{"jobType": string(msg.JobType)}
	if err := q.client.Publish(ctx, body, "application/json", headers); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}

	q.logger.Debug("Message published to dispatch queue",
		slog.String("job_id", msg.JobID),
		slog.String("job_type", string(msg.JobType)),
	)

	return nil
}

// Receive polls the queue until a message arrives or maxWait elapses.
// basic.get has no server-side wait, so the poll sleeps briefly between
// attempts.
func (q *RabbitQueue) Receive(ctx context.Context, maxWait time.Duration) (*Delivery, error) {
	const pollInterval = 200 * time.Millisecond

	deadline := time.Now().Add(maxWait)
	for {
		delivery, ok, err := q.client.Get()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
		}

		if ok {
			var msg domain.DispatchMessage
			if err := json.Unmarshal(delivery.Body, &msg); err != nil {
				return nil, fmt.Errorf("failed to decode dispatch message: %w", err)
			}

			return &Delivery{
				Message: msg,
				Token:   strconv.FormatUint(delivery.DeliveryTag, 10),
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (q *RabbitQueue) Acknowledge(ctx context.Context, token string) error {
	tag, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid delivery token %q: %w", token, err)
	}

	if err := q.client.Ack(tag); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}

	return nil
}
