// Package jobstore persists job records. The submission service creates
// records; the worker performs the processing and terminal transitions;
// the status query path only reads.
package jobstore

import (
	"context"

	"github.com/assetforge/render-be/internal/domain"
)

// Store is the job record store. Terminal transitions (Complete, Fail)
// take effect at most once per job: once a job is completed or failed,
// further transition calls are no-ops, so a redelivered message cannot
// rewrite history.
type Store interface {
	// Create persists a new job record. The record arrives in queued state.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID returns the job or domain.ErrJobNotFound.
	GetByID(ctx context.Context, jobID string) (*domain.Job, error)

	// ListAll returns every known job, newest first.
	ListAll(ctx context.Context) ([]*domain.Job, error)

	// MarkProcessing moves a queued job to processing. It is a no-op for
	// jobs already processing or terminal, and for unknown ids.
	MarkProcessing(ctx context.Context, jobID string) error

	// Complete moves the job to completed, recording output refs and the
	// completion time atomically. No-op if the job is already terminal.
	Complete(ctx context.Context, jobID string, outputs map[string]domain.ArtifactRef) error

	// Fail moves the job to failed, recording the error message and the
	// completion time atomically. No-op if the job is already terminal.
	Fail(ctx context.Context, jobID string, errMsg string) error
}
