package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/assetforge/render-be/internal/domain"
	"github.com/assetforge/render-be/internal/jobstore"
	"github.com/assetforge/render-be/internal/queue"
)

// SubmissionService accepts render jobs and hands them to the worker
// fleet through the dispatch queue.
type SubmissionService struct {
	store  jobstore.Store
	queue  queue.Queue
	bucket string
	logger *slog.Logger
}

// NewSubmissionService creates a submission service.
func NewSubmissionService(store jobstore.Store, q queue.Queue, bucket string, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{
		store:  store,
		queue:  q,
		bucket: bucket,
		logger: logger,
	}
}

// Submit validates the request, enqueues a dispatch message and then
// persists the job record. Enqueue comes first: if the queue refuses
// the message, nothing is persisted and the client sees
// ErrDispatchUnavailable.
func (s *SubmissionService) Submit(ctx context.Context, jobType domain.JobType, inputFileKey string) (*domain.Job, error) {
	if !domain.IsValidJobType(jobType) {
		return nil, fmt.Errorf("%w: unknown job type %q", domain.ErrInvalidRequest, jobType)
	}

	if inputFileKey == "" {
		return nil, fmt.Errorf("%w: input_file_key is required", domain.ErrInvalidRequest)
	}

	job := &domain.Job{
		ID:      uuid.NewString(),
		JobType: jobType,
		Status:  domain.JobStatusQueued,
		InputRef: domain.ArtifactRef{
			Bucket: s.bucket,
			Key:    inputFileKey,
		},
		CreatedAt: time.Now().UTC(),
	}

	msg := domain.DispatchMessage{
		JobID:       job.ID,
		JobType:     job.JobType,
		InputRef:    job.InputRef,
		Bucket:      s.bucket,
		SubmittedAt: job.CreatedAt,
	}

	if err := s.queue.Enqueue(ctx, msg); err != nil {
		s.logger.Error("Failed to dispatch job",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrDispatchUnavailable, err)
	}

	if err := s.store.Create(ctx, job); err != nil {
		// The message is already durable; the worker will still process
		// it, so surface the persistence failure to the caller.
		s.logger.Error("Job dispatched but record not persisted",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	s.logger.Info("Job submitted",
		slog.String("job_id", job.ID),
		slog.String("job_type", string(job.JobType)),
		slog.String("input_key", inputFileKey),
	)

	return job, nil
}

// StatusService answers job status queries from the job record store.
type StatusService struct {
	store jobstore.Store
}

// NewStatusService creates a status service.
func NewStatusService(store jobstore.Store) *StatusService {
	return &StatusService{store: store}
}

// Get returns the current job record, or domain.ErrJobNotFound.
func (s *StatusService) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.store.GetByID(ctx, jobID)
}

// List returns all job records, newest first.
func (s *StatusService) List(ctx context.Context) ([]*domain.Job, error) {
	return s.store.ListAll(ctx)
}
