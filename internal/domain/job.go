package domain

import "time"

// Job status values. queued and processing are transient; completed and
// failed are terminal and never transition again.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// JobType selects the render profile executed by the worker.
type JobType string

const (
	JobTypeHello     JobType = "hello"
	JobTypeStudio    JobType = "studio"
	JobTypeTurntable JobType = "turntable"
)

// ValidJobTypes is the closed set accepted at submission time.
var ValidJobTypes = []JobType{JobTypeHello, JobTypeStudio, JobTypeTurntable}

// IsValidJobType reports whether t is a member of the closed job type set.
func IsValidJobType(t JobType) bool {
	for _, v := range ValidJobTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ArtifactRef locates an object in the artifact store.
type ArtifactRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url,omitempty"`
}

// Job is the record tracked from submission to terminal state.
// The submission service creates it; the worker is the only writer of
// status, outputs and error afterwards.
type Job struct {
	ID          string                 `json:"id" db:"job_id"`
	JobType     JobType                `json:"job_type" db:"job_type"`
	Status      string                 `json:"status" db:"status"`
	InputRef    ArtifactRef            `json:"input_ref"`
	OutputRefs  map[string]ArtifactRef `json:"output_refs,omitempty"`
	Error       string                 `json:"error,omitempty" db:"error_message"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty" db:"completed_at"`
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
