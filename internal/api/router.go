package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/flashcards/internal/logger"
)

// NewRouter builds the gin engine with every route registered
func NewRouter(h *Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes attaches the review endpoints to r
func RegisterRoutes(r gin.IRoutes, h *Handler) {
	r.GET("/review-queue/:deckId", h.getReviewQueue)
	r.POST("/review/:cardId", h.submitReview)
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.With("component", "HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
