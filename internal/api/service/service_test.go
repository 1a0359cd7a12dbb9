package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetforge/render-be/internal/domain"
	"github.com/assetforge/render-be/internal/jobstore"
	"github.com/assetforge/render-be/internal/queue"
)

type failingQueue struct{}

func (failingQueue) Enqueue(ctx context.Context, msg domain.DispatchMessage) error {
	return domain.ErrQueueUnavailable
}

func (failingQueue) Receive(ctx context.Context, maxWait time.Duration) (*queue.Delivery, error) {
	return nil, domain.ErrQueueUnavailable
}

func (failingQueue) Acknowledge(ctx context.Context, token string) error {
	return domain.ErrQueueUnavailable
}

func newSubmission(t *testing.T) (*SubmissionService, jobstore.Store, *queue.MemoryQueue) {
	t.Helper()
	store := jobstore.NewMemoryStore()
	q := queue.NewMemoryQueue(time.Minute)
	svc := NewSubmissionService(store, q, "render-artifacts", slog.New(slog.DiscardHandler))
	return svc, store, q
}

func TestSubmit_PersistsAndEnqueues(t *testing.T) {
	svc, store, q := newSubmission(t)
	ctx := context.Background()

	job, err := svc.Submit(ctx, domain.JobTypeStudio, "inputs/model.glb")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, domain.JobStatusQueued, job.Status)
	assert.Equal(t, "inputs/model.glb", job.InputRef.Key)
	assert.Nil(t, job.CompletedAt)

	stored, err := store.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusQueued, stored.Status)

	d, err := q.Receive(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, job.ID, d.Message.JobID)
	assert.Equal(t, domain.JobTypeStudio, d.Message.JobType)
	assert.Equal(t, "inputs/model.glb", d.Message.InputRef.Key)
}

func TestSubmit_UniqueIDs(t *testing.T) {
	svc, _, _ := newSubmission(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, domain.JobTypeHello, "inputs/hello.glb")
	require.NoError(t, err)
	second, err := svc.Submit(ctx, domain.JobTypeHello, "inputs/hello.glb")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmit_RejectsUnknownJobType(t *testing.T) {
	svc, store, _ := newSubmission(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, domain.JobType("wireframe"), "inputs/model.glb")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	jobs, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSubmit_RequiresInputForAllJobTypes(t *testing.T) {
	svc, store, q := newSubmission(t)
	ctx := context.Background()

	for _, jobType := range []domain.JobType{domain.JobTypeHello, domain.JobTypeStudio, domain.JobTypeTurntable} {
		_, err := svc.Submit(ctx, jobType, "")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest, "job type %s", jobType)
	}

	// Rejected submissions leave no record and no message behind.
	jobs, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Equal(t, 0, q.Len())
}

func TestSubmit_QueueFailureLeavesNothingPersisted(t *testing.T) {
	store := jobstore.NewMemoryStore()
	svc := NewSubmissionService(store, failingQueue{}, "render-artifacts", slog.New(slog.DiscardHandler))
	ctx := context.Background()

	_, err := svc.Submit(ctx, domain.JobTypeStudio, "inputs/model.glb")
	assert.ErrorIs(t, err, domain.ErrDispatchUnavailable)

	jobs, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestStatusService_GetAndList(t *testing.T) {
	store := jobstore.NewMemoryStore()
	status := NewStatusService(store)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &domain.Job{
		ID:        "job-1",
		JobType:   domain.JobTypeHello,
		Status:    domain.JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}))

	job, err := status.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)

	_, err = status.Get(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrJobNotFound))

	jobs, err := status.List(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}
