package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	appconfig "github.com/assetforge/render-be/internal/config"
	"github.com/assetforge/render-be/internal/domain"
)

// SQSQueue is the durable dispatch queue backed by Amazon SQS. The
// receipt handle of each received message is the acknowledge token;
// unacknowledged messages reappear after the visibility timeout.
type SQSQueue struct {
	client            *sqs.Client
	queueURL          string
	visibilityTimeout time.Duration
	logger            *slog.Logger
}

// NewSQSQueue creates an SQS-backed queue from configuration.
func NewSQSQueue(ctx context.Context, cfg appconfig.SQSConfig, logger *slog.Logger) (*SQSQueue, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
	})

	logger.Info("SQS queue client initialized",
		slog.String("queue_url", cfg.QueueURL),
		slog.String("region", cfg.Region),
	)

	return &SQSQueue{
		client:            client,
		queueURL:          cfg.QueueURL,
		visibilityTimeout: cfg.VisibilityTimeout,
		logger:            logger,
	}, nil
}

func (q *SQSQueue) Enqueue(ctx context.Context, msg domain.DispatchMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode dispatch message: %w", err)
	}

	bodyStr := string(body)
	jobType := string(msg.JobType)
	dataType := "String"

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &q.queueURL,
		MessageBody: &bodyStr,
		MessageAttributes: map[string]types.MessageAttributeValue{
			"jobType": {
				DataType:    &dataType,
				StringValue: &jobType,
			},
		},
	})
	if err != nil {
		q.logger.Error("Failed to send message to SQS",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}

	q.logger.Debug("Message sent to SQS",
		slog.String("job_id", msg.JobID),
		slog.String("job_type", jobType),
	)

	return nil
}

func (q *SQSQueue) Receive(ctx context.Context, maxWait time.Duration) (*Delivery, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            &q.queueURL,
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     int32(maxWait / time.Second),
	}
	if q.visibilityTimeout > 0 {
		input.VisibilityTimeout = int32(q.visibilityTimeout / time.Second)
	}

	out, err := q.client.ReceiveMessage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}

	if len(out.Messages) == 0 {
		return nil, nil
	}

	raw := out.Messages[0]

	var msg domain.DispatchMessage
	if err := json.Unmarshal([]byte(*raw.Body), &msg); err != nil {
		return nil, fmt.Errorf("failed to decode dispatch message: %w", err)
	}

	return &Delivery{
		Message: msg,
		Token:   *raw.ReceiptHandle,
	}, nil
}

func (q *SQSQueue) Acknowledge(ctx context.Context, token string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &q.queueURL,
		ReceiptHandle: &token,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}

	return nil
}
