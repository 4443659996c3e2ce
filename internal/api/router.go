package api

import (
	"context"
	"net/http"
	"time"

	"github.com/comment-sync-api/internal/config"
	"github.com/comment-sync-api/internal/database"
	"github.com/comment-sync-api/internal/hub"
	"github.com/comment-sync-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router. db may be nil in tests;
// the health endpoint then skips the database ping.
func NewRouter(services *service.Services, h *hub.Hub, db *database.DB, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	commentHandler := NewCommentHandler(services, h, log)
	wsHandler := NewWSHandler(h, cfg, log)

	// Health check
	router.GET("/health", healthCheck(db))

	// Live comment channel
	router.GET("/ws", wsHandler.Serve)

	// API v1: the dispatcher's HTTP fallback path plus initial thread load
	v1 := router.Group("/v1")
	{
		comments := v1.Group("/comments")
		{
			comments.POST("", commentHandler.CreateComment)
			comments.DELETE("/:comment_id", commentHandler.DeleteComment)
		}

		v1.GET("/posts/:post_type/:post_id/comments", commentHandler.GetThread)
		v1.GET("/users/:user_id/public", commentHandler.GetCommenter)
	}

	return router
}

// healthCheck returns the health status, pinging the database when one is
// wired in
func healthCheck(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "unhealthy",
					"timestamp": time.Now().Format(time.RFC3339),
					"service":   "comment-sync-api",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "comment-sync-api",
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
