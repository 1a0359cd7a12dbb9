package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for submissions that fail validation.
	// No record is created and nothing is enqueued.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrDispatchUnavailable is returned when the dispatch message could
	// not be enqueued at submission time.
	ErrDispatchUnavailable = errors.New("dispatch unavailable")

	// ErrQueueUnavailable indicates a transient queue infrastructure
	// failure; callers retry with backoff rather than failing the job.
	ErrQueueUnavailable = errors.New("queue unavailable")

	// ErrJobNotFound is returned when a job id does not resolve.
	ErrJobNotFound = errors.New("job not found")

	// ErrArtifactNotFound is returned when an artifact reference does not
	// resolve in the store.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrArtifactUnavailable indicates a transient artifact store failure.
	ErrArtifactUnavailable = errors.New("artifact store unavailable")

	// ErrUnsupportedJobType means a dispatch message carried a job type
	// outside the closed set. Submission validation makes this
	// unreachable in practice; the worker treats it as fatal for the job,
	// never for the process.
	ErrUnsupportedJobType = errors.New("unsupported job type")
)

// Pipeline stage names, used in error reports and stage errors.
const (
	StageSetup    = "setup"
	StageDownload = "download"
	StageRender   = "render"
	StageUpload   = "upload"
	StageManifest = "manifest"
	StageArchive  = "archive"
	StageCleanup  = "cleanup"
)

// StageError records which pipeline stage a job failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage it occurred in.
func NewStageError(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// StageOf extracts the stage from err, or "processing" if err carries
// no stage information.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "processing"
}
