package http

import (
	"github.com/gin-gonic/gin"

	"github.com/fashionassist/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		pipeline := v1.Group("/pipeline")
		{
			pipeline.POST("/run", handler.RunPipeline)
		}

		wardrobe := v1.Group("/wardrobe")
		{
			wardrobe.GET("", handler.ListWardrobe)
			wardrobe.GET("/summary", handler.WardrobeSummary)
			wardrobe.POST("/analyze", handler.AnalyzeWardrobeItem)
		}

		v1.POST("/compatibility", handler.Compatibility)
	}

	return router
}
