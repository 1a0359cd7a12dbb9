package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assetforge/render-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "render-api-service",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	uploadHandler := handler.NewUploadHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Submit a new render job
			jobs.POST("", jobHandler.CreateJob)

			// POST /api/v1/jobs/hello - Submit a smoke-test job
			jobs.POST("/hello", jobHandler.CreateHelloJob)

			// GET /api/v1/jobs - List jobs, newest first
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_id - Get job status and outputs
			jobs.GET("/:job_id", jobHandler.GetJob)
		}

		// POST /api/v1/uploads - Presign a direct input upload
		v1.POST("/uploads", uploadHandler.CreateUpload)
	}

	return r
}
