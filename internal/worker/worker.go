package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/assetforge/render-be/internal/domain"
	"github.com/assetforge/render-be/internal/jobstore"
	"github.com/assetforge/render-be/internal/queue"
	"github.com/assetforge/render-be/internal/worker/pipeline"
)

// Options tunes the dispatch loop.
type Options struct {
	// PollWait is how long a single receive blocks waiting for work.
	PollWait time.Duration

	// IdleDelay is the pause after an empty receive.
	IdleDelay time.Duration

	// ErrorBackoff is the pause after a queue infrastructure error.
	ErrorBackoff time.Duration
}

// Worker drives the consume loop: receive a dispatch message, run the
// pipeline, record the outcome, and acknowledge only after everything
// else succeeded. A message whose processing fails is left
// unacknowledged so the queue redelivers it.
type Worker struct {
	queue    queue.Queue
	store    jobstore.Store
	pipeline *pipeline.Pipeline
	opts     Options
	logger   *slog.Logger
}

// New creates a worker.
func New(q queue.Queue, store jobstore.Store, p *pipeline.Pipeline, opts Options, logger *slog.Logger) *Worker {
	return &Worker{
		queue:    q,
		store:    store,
		pipeline: p,
		opts:     opts,
		logger:   logger,
	}
}

// Run processes messages until ctx is cancelled. Messages are handled
// one at a time; job failures never stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker started",
		slog.Duration("poll_wait", w.opts.PollWait),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker stopping")
			return ctx.Err()
		default:
		}

		delivery, err := w.queue.Receive(ctx, w.opts.PollWait)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Worker stopping")
				return ctx.Err()
			}
			w.logger.Error("Failed to receive from queue",
				slog.Any("error", err),
			)
			w.sleep(ctx, w.opts.ErrorBackoff)
			continue
		}

		if delivery == nil {
			w.sleep(ctx, w.opts.IdleDelay)
			continue
		}

		w.process(ctx, delivery)
	}
}

// process runs one delivery through the pipeline. The terminal store
// transition happens before the acknowledge, so a crash in between
// causes a redelivery rather than a lost result; terminal states are
// first-write-wins, so the rerun cannot change the recorded outcome.
func (w *Worker) process(ctx context.Context, delivery *queue.Delivery) {
	msg := delivery.Message

	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.String("job_type", string(msg.JobType)),
	)

	if err := w.store.MarkProcessing(ctx, msg.JobID); err != nil {
		w.logger.Error("Failed to mark job processing",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
	}

	outputs, err := w.pipeline.Execute(ctx, msg)
	if err != nil {
		if ferr := w.store.Fail(ctx, msg.JobID, err.Error()); ferr != nil {
			w.logger.Error("Failed to record job failure",
				slog.String("job_id", msg.JobID),
				slog.Any("error", ferr),
			)
		}
		// No acknowledge: the queue redelivers and, once attempts are
		// exhausted, dead-letters the message.
		w.logger.Warn("Job failed, leaving delivery unacknowledged",
			slog.String("job_id", msg.JobID),
			slog.String("stage", domain.StageOf(err)),
		)
		return
	}

	if err := w.store.Complete(ctx, msg.JobID, outputs); err != nil {
		w.logger.Error("Failed to record job completion",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
		return
	}

	if err := w.queue.Acknowledge(ctx, delivery.Token); err != nil {
		// The work is done and recorded; the redelivered message will
		// rerun the idempotent pipeline and acknowledge then.
		w.logger.Error("Failed to acknowledge delivery",
			slog.String("job_id", msg.JobID),
			slog.Any("error", err),
		)
		return
	}

	w.logger.Info("Job completed",
		slog.String("job_id", msg.JobID),
		slog.Int("outputs", len(outputs)),
	)
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
