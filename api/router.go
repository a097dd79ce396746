// ytparser/api/router.go
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ytparser/config"
)

func SetupRouter(h *Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.Use(AuthMiddleware(cfg))
	v1.Use(LoadShedMiddleware(cfg, log))
	{
		v1.POST("/analyze", h.handleAnalyze)
		v1.POST("/translate", h.handleTranslate)
		v1.GET("/analyze/stream", h.handleAnalyzeStream)
		v1.GET("/tasks/:taskId", h.handleGetTask)
		v1.GET("/tasks/:taskId/download", h.handleDownload)
	}
	return r
}
