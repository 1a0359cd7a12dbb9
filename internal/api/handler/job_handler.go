package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assetforge/render-be/internal/api/dto"
	"github.com/assetforge/render-be/internal/domain"
)

// CreateJob handles POST /api/v1/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	job, err := h.submission.Submit(c.Request.Context(), domain.JobType(req.JobType), req.InputFileKey)
	if err != nil {
		h.respondSubmitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromJob(job))
}

// CreateHelloJob handles POST /api/v1/jobs/hello, a smoke-test
// submission pinned to the hello job type.
func (h *JobHandler) CreateHelloJob(c *gin.Context) {
	var req dto.CreateHelloJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	job, err := h.submission.Submit(c.Request.Context(), domain.JobTypeHello, req.InputFileKey)
	if err != nil {
		h.respondSubmitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromJob(job))
}

func (h *JobHandler) respondSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDispatchUnavailable):
		h.logger.Error("Dispatch queue unavailable", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "job dispatch is temporarily unavailable"})
	default:
		h.logger.Error("Failed to create job", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to create job"})
	}
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.status.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "job not found"})
			return
		}
		h.logger.Error("Failed to get job", slog.String("job_id", jobID), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to get job"})
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.status.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to list jobs"})
		return
	}

	c.JSON(http.StatusOK, dto.FromJobs(jobs))
}
