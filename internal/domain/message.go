package domain

import "time"

// DispatchMessage is the queue payload describing one job to process.
// It is produced exactly once per job at submission time but may be
// delivered more than once; the pipeline's side effects are keyed by
// job id so reprocessing overwrites rather than duplicates.
//
// The delivery token proving receipt is NOT part of this payload; the
// queue returns it as a separate value alongside the message.
type DispatchMessage struct {
	JobID       string      `json:"job_id"`
	JobType     JobType     `json:"job_type"`
	InputRef    ArtifactRef `json:"input_ref"`
	Bucket      string      `json:"bucket"`
	SubmittedAt time.Time   `json:"submitted_at"`
}
