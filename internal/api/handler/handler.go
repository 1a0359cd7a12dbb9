package handler

import (
	"log/slog"

	"github.com/assetforge/render-be/internal/api/service"
	"github.com/assetforge/render-be/internal/artifact"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Submission *service.SubmissionService
	Status     *service.StatusService
	Artifacts  artifact.Store
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger     *slog.Logger
	submission *service.SubmissionService
	status     *service.StatusService
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:     deps.Logger,
		submission: deps.Submission,
		status:     deps.Status,
	}
}

// UploadHandler hands out direct-to-storage upload URLs
type UploadHandler struct {
	logger    *slog.Logger
	artifacts artifact.Store
}

// NewUploadHandler creates a new UploadHandler instance
func NewUploadHandler(deps *Dependencies) *UploadHandler {
	return &UploadHandler{
		logger:    deps.Logger,
		artifacts: deps.Artifacts,
	}
}
