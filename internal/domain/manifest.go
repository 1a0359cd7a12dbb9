package domain

// ManifestEntry is one input or output object in a manifest.
type ManifestEntry struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Manifest is the published summary of a completed job. It is written
// once under reports/jobs/{jobId}.json and never modified afterwards.
type Manifest struct {
	JobID       string                   `json:"job_id"`
	JobType     JobType                  `json:"job_type"`
	CreatedAt   string                   `json:"created_at"`
	CompletedAt string                   `json:"completed_at"`
	Input       ManifestEntry            `json:"input"`
	Outputs     map[string]ManifestEntry `json:"outputs"`
}

// ErrorReport is the record published under reports/errors/{jobId}.json
// when a pipeline run fails.
type ErrorReport struct {
	JobID     string `json:"job_id"`
	Error     string `json:"error"`
	Stage     string `json:"stage"`
	Timestamp string `json:"timestamp"`
}
