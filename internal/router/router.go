package router

import (
	"github.com/gin-gonic/gin"

	"ticketscan/internal/config"
	"ticketscan/internal/handler"
	"ticketscan/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	runH *handler.RunHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Run routes
	runs := v1.Group("/runs")
	// a batch holds many files; the body cap is per-batch, the handler
	// enforces the per-file limit
	runs.POST("", middleware.MaxBodySize(cfg.Server.MaxUploadSizeMB*1024*1024*20), runH.Create)
	runs.GET("", runH.List)
	runs.GET("/:id", runH.Get)
	runs.GET("/:id/files", runH.Files)
	runs.GET("/:id/rows", runH.Rows)
	runs.GET("/:id/export", runH.Export)
	runs.DELETE("/:id", runH.Delete)

	return r
}
