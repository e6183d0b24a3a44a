package dashboard

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mapwatch/internal/logging"
	"mapwatch/internal/services"
)

const requestIDHeader = "X-Request-ID"

// NewRouter registers every endpoint on a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	router.GET("/healthz", h.Health)
	router.GET("/metrics", h.Metrics)

	api := router.Group("/api")
	{
		api.GET("/detections", h.ListDetections)
		api.GET("/detections/:id", h.GetDetection)
		api.GET("/detections/:id/frame", h.Frame)
		api.GET("/latest", h.Latest)
		api.GET("/stats", h.Stats)
		api.GET("/catalog", h.Catalog)
		api.GET("/board", h.Board)
		api.GET("/status", h.Status)
	}
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))

		start := time.Now()
		c.Next()
		logging.WithContext(c.Request.Context(), logger).Debug("dashboard request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
}
