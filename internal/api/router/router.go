package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/content-ingest/internal/api/handler"
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
			"service": "content-ingest-api",
		})
	})

	sourceHandler := handler.NewSourceHandler(deps)
	jobHandler := handler.NewJobHandler(deps)
	contentHandler := handler.NewContentHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		sources := v1.Group("/sources")
		{
			sources.POST("", sourceHandler.CreateSource)
			sources.GET("", sourceHandler.ListSources)
			sources.GET("/:source_id", sourceHandler.GetSource)
			sources.PUT("/:source_id", sourceHandler.UpdateSource)
			sources.POST("/:source_id/activate", sourceHandler.ActivateSource)
			sources.POST("/:source_id/deactivate", sourceHandler.DeactivateSource)
		}

		jobs := v1.Group("/jobs")
		{
			// POST schedules an immediate run, GET reads job state
			jobs.POST("", jobHandler.ScheduleJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/:job_id", jobHandler.GetJob)
		}

		content := v1.Group("/content")
		{
			content.GET("", contentHandler.ListContent)
			content.GET("/:content_id", contentHandler.GetContent)
		}
	}

	return r
}
