package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes.
// guard protects the write endpoints; nil leaves them open.
func SetupRoutes(router *gin.Engine, handler Handler, guard gin.HandlerFunc) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// URL resolution is read-only and public
		v1.GET("/images/url", handler.ResolveURL)
		v1.GET("/status", handler.GetStatus)

		writes := v1.Group("/images/saved")
		if guard != nil {
			writes.Use(guard)
		}
		writes.POST("", handler.SaveImage)
		writes.POST("/batch", handler.SaveImages)
	}
}
