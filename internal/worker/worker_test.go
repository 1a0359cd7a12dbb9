package worker

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetforge/render-be/internal/artifact"
	"github.com/assetforge/render-be/internal/domain"
	"github.com/assetforge/render-be/internal/jobstore"
	"github.com/assetforge/render-be/internal/queue"
	"github.com/assetforge/render-be/internal/worker/pipeline"
	"github.com/assetforge/render-be/internal/worker/render"
)

type fakeArchiver struct{}

func (fakeArchiver) Archive(ctx context.Context, dir, archivePath string) error {
	return os.WriteFile(archivePath, []byte("zip bytes"), 0o644)
}

type harness struct {
	worker *Worker
	store  *jobstore.MemoryStore
	queue  *queue.MemoryQueue
	fs     *artifact.LocalFSStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store := jobstore.NewMemoryStore()
	q := queue.NewMemoryQueue(time.Minute)
	fs := artifact.NewLocalFSStore(t.TempDir(), "render-artifacts")
	stageModel(t, fs)

	p := pipeline.New(fs, render.NewRegistry(), fakeArchiver{}, pipeline.NewSlogReporter(logger), t.TempDir(), logger)

	w := New(q, store, p, Options{
		PollWait:     50 * time.Millisecond,
		IdleDelay:    5 * time.Millisecond,
		ErrorBackoff: 5 * time.Millisecond,
	}, logger)

	return &harness{worker: w, store: store, queue: q, fs: fs}
}

func stageModel(t *testing.T, fs *artifact.LocalFSStore) domain.ArtifactRef {
	t.Helper()
	ref, err := fs.PublishBytes(context.Background(), "inputs/hello.glb", []byte("glTF fake model bytes"))
	require.NoError(t, err)
	return ref
}

func modelRef() domain.ArtifactRef {
	return domain.ArtifactRef{Bucket: "render-artifacts", Key: "inputs/hello.glb"}
}

func (h *harness) submit(t *testing.T, job *domain.Job) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.store.Create(ctx, job))
	require.NoError(t, h.queue.Enqueue(ctx, domain.DispatchMessage{
		JobID:       job.ID,
		JobType:     job.JobType,
		InputRef:    job.InputRef,
		Bucket:      "render-artifacts",
		SubmittedAt: job.CreatedAt,
	}))
}

func (h *harness) runUntil(t *testing.T, cond func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.worker.Run(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			cancel()
			<-done
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done
	t.Fatal("condition not reached before deadline")
}

func (h *harness) jobStatus(t *testing.T, jobID string) *domain.Job {
	t.Helper()
	job, err := h.store.GetByID(context.Background(), jobID)
	require.NoError(t, err)
	return job
}

func TestWorker_CompletesJobAndAcknowledges(t *testing.T) {
	h := newHarness(t)

	job := &domain.Job{
		ID:        "job-1",
		JobType:   domain.JobTypeHello,
		Status:    domain.JobStatusQueued,
		InputRef:  modelRef(),
		CreatedAt: time.Now().UTC(),
	}
	h.submit(t, job)

	h.runUntil(t, func() bool {
		return h.jobStatus(t, "job-1").Terminal() && h.queue.Len() == 0
	})

	final := h.jobStatus(t, "job-1")
	assert.Equal(t, domain.JobStatusCompleted, final.Status)
	require.NotNil(t, final.CompletedAt)
	assert.Contains(t, final.OutputRefs, "hello")
	assert.Contains(t, final.OutputRefs, "archive")
	assert.Empty(t, final.Error)
}

func TestWorker_FailedJobIsNotAcknowledged(t *testing.T) {
	h := newHarness(t)

	job := &domain.Job{
		ID:      "job-2",
		JobType: domain.JobTypeStudio,
		Status:  domain.JobStatusQueued,
		InputRef: domain.ArtifactRef{
			Bucket: "render-artifacts",
			Key:    "inputs/missing.glb",
		},
		CreatedAt: time.Now().UTC(),
	}
	h.submit(t, job)

	h.runUntil(t, func() bool {
		return h.jobStatus(t, "job-2").Terminal()
	})

	final := h.jobStatus(t, "job-2")
	assert.Equal(t, domain.JobStatusFailed, final.Status)
	assert.Contains(t, final.Error, "download")
	require.NotNil(t, final.CompletedAt)

	// The delivery stays in the queue for redelivery or dead-lettering.
	assert.Equal(t, 1, h.queue.Len())
}

func TestWorker_RedeliveryOfTerminalJobDrainsQueue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	job := &domain.Job{
		ID:        "job-3",
		JobType:   domain.JobTypeHello,
		Status:    domain.JobStatusQueued,
		InputRef:  modelRef(),
		CreatedAt: time.Now().UTC(),
	}
	h.submit(t, job)

	// The job already failed on an earlier attempt elsewhere.
	require.NoError(t, h.store.Fail(ctx, "job-3", "render: exit status 1"))

	h.runUntil(t, func() bool {
		return h.queue.Len() == 0
	})

	// Reprocessing succeeded and acknowledged, but the recorded outcome
	// is still the first terminal transition.
	final := h.jobStatus(t, "job-3")
	assert.Equal(t, domain.JobStatusFailed, final.Status)
	assert.Equal(t, "render: exit status 1", final.Error)
	assert.Nil(t, final.OutputRefs)
}

func TestWorker_ProcessesJobsSequentially(t *testing.T) {
	h := newHarness(t)

	now := time.Now().UTC()
	for _, id := range []string{"job-4", "job-5", "job-6"} {
		h.submit(t, &domain.Job{
			ID:        id,
			JobType:   domain.JobTypeHello,
			Status:    domain.JobStatusQueued,
			InputRef:  modelRef(),
			CreatedAt: now,
		})
	}

	h.runUntil(t, func() bool {
		return h.queue.Len() == 0
	})

	for _, id := range []string{"job-4", "job-5", "job-6"} {
		assert.Equal(t, domain.JobStatusCompleted, h.jobStatus(t, id).Status)
	}
}

// flakyQueue fails the first few receives before recovering.
type flakyQueue struct {
	*queue.MemoryQueue
	failures int
}

func (q *flakyQueue) Receive(ctx context.Context, maxWait time.Duration) (*queue.Delivery, error) {
	if q.failures > 0 {
		q.failures--
		return nil, domain.ErrQueueUnavailable
	}
	return q.MemoryQueue.Receive(ctx, maxWait)
}

func TestWorker_SurvivesReceiveErrors(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	store := jobstore.NewMemoryStore()
	fs := artifact.NewLocalFSStore(t.TempDir(), "render-artifacts")
	stageModel(t, fs)
	q := &flakyQueue{MemoryQueue: queue.NewMemoryQueue(time.Minute), failures: 3}

	p := pipeline.New(fs, render.NewRegistry(), fakeArchiver{}, pipeline.NewSlogReporter(logger), t.TempDir(), logger)
	w := New(q, store, p, Options{
		PollWait:     50 * time.Millisecond,
		IdleDelay:    5 * time.Millisecond,
		ErrorBackoff: 5 * time.Millisecond,
	}, logger)

	ctx := context.Background()
	job := &domain.Job{
		ID:        "job-7",
		JobType:   domain.JobTypeHello,
		Status:    domain.JobStatusQueued,
		InputRef:  modelRef(),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Create(ctx, job))
	require.NoError(t, q.Enqueue(ctx, domain.DispatchMessage{
		JobID:       job.ID,
		JobType:     job.JobType,
		InputRef:    job.InputRef,
		Bucket:      "render-artifacts",
		SubmittedAt: job.CreatedAt,
	}))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(runCtx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, err := store.GetByID(ctx, "job-7")
		require.NoError(t, err)
		if got.Status == domain.JobStatusCompleted {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	final, err := store.GetByID(ctx, "job-7")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, final.Status)
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- h.worker.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
