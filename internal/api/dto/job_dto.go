package dto

import (
	"time"

	"github.com/assetforge/render-be/internal/domain"
)

type CreateJobRequest struct {
	JobType      string `json:"job_type" binding:"required"`
	InputFileKey string `json:"input_file_key"`
}

type CreateHelloJobRequest struct {
	InputFileKey string `json:"input_file_key" binding:"required"`
}

type JobResponse struct {
	JobID       string                       `json:"job_id"`
	JobType     string                       `json:"job_type"`
	Status      string                       `json:"status"`
	InputKey    string                       `json:"input_key,omitempty"`
	Outputs     map[string]ArtifactRefDTO    `json:"outputs,omitempty"`
	Error       string                       `json:"error,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
	CompletedAt *time.Time                   `json:"completed_at,omitempty"`
}

type ArtifactRefDTO struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url,omitempty"`
}

type ListJobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type CreateUploadRequest struct {
	FileName string `json:"file_name" binding:"required"`
}

type CreateUploadResponse struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// FromJob maps a job record to its API representation.
func FromJob(job *domain.Job) JobResponse {
	resp := JobResponse{
		JobID:       job.ID,
		JobType:     string(job.JobType),
		Status:      job.Status,
		InputKey:    job.InputRef.Key,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}

	if len(job.OutputRefs) > 0 {
		resp.Outputs = make(map[string]ArtifactRefDTO, len(job.OutputRefs))
		for name, ref := range job.OutputRefs {
			resp.Outputs[name] = ArtifactRefDTO{
				Bucket: ref.Bucket,
				Key:    ref.Key,
				URL:    ref.URL,
			}
		}
	}

	return resp
}

// FromJobs maps a list of job records, preserving order.
func FromJobs(jobs []*domain.Job) ListJobsResponse {
	out := ListJobsResponse{Jobs: make([]JobResponse, 0, len(jobs))}
	for _, job := range jobs {
		out.Jobs = append(out.Jobs, FromJob(job))
	}
	return out
}
