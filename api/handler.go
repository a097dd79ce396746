// ytparser/api/handler.go
package api

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ytparser/config"
	"ytparser/task"
	"ytparser/worker"
)

type Handler struct {
	cfg        *config.Config
	store      task.Store
	runner     *task.Runner
	analyzer   *worker.Analyzer
	translator *worker.Translator
	log        *zap.Logger
}

func NewHandler(cfg *config.Config, store task.Store, runner *task.Runner,
	analyzer *worker.Analyzer, translator *worker.Translator, log *zap.Logger) *Handler {
	return &Handler{
		cfg:        cfg,
		store:      store,
		runner:     runner,
		analyzer:   analyzer,
		translator: translator,
		log:        log,
	}
}

type AnalyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

type TranslateRequest struct {
	Path string `json:"path" binding:"required"`
}

// handleAnalyze submits a video URL for metadata extraction and returns the
// task id immediately; clients poll /v1/tasks/:taskId.
func (h *Handler) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.store.Create(c.Request.Context(), task.KindAnalyze)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	h.runner.Dispatch(t.ID, h.analyzer.Job(req.URL))
	h.log.Info("analyze task created", zap.String("task_id", t.ID), zap.String("url", req.URL))
	c.JSON(http.StatusOK, gin.H{"task_id": t.ID, "status": task.StatusPending})
}

// handleTranslate submits a subtitle URL or local path for translation.
func (h *Handler) handleTranslate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.store.Create(c.Request.Context(), task.KindTranslate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	h.runner.Dispatch(t.ID, h.translator.Job(req.Path, t.ID))
	h.log.Info("translate task created", zap.String("task_id", t.ID), zap.String("path", req.Path))
	c.JSON(http.StatusOK, gin.H{"task_id": t.ID, "status": task.StatusPending})
}

// handleGetTask is the polling endpoint.
func (h *Handler) handleGetTask(c *gin.Context) {
	t, err := h.store.Get(c.Request.Context(), c.Param("taskId"))
	if errors.Is(err, task.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Task store unavailable"})
		return
	}

	resp := gin.H{
		"task_id":  t.ID,
		"status":   t.Status,
		"progress": t.Progress,
		"result":   t.Result.Payload(),
		"error":    nil,
	}
	if t.Error != "" {
		resp["error"] = t.Error
	}
	if u := h.downloadURL(t); u != "" {
		resp["download_url"] = u
	}
	c.JSON(http.StatusOK, resp)
}

// downloadURL builds the artifact link for a completed translate task,
// prefixed with the configured public base URL when one is set.
func (h *Handler) downloadURL(t *task.Task) string {
	if t.Kind != task.KindTranslate || t.Status != task.StatusCompleted ||
		t.Result == nil || t.Result.Subtitle == nil {
		return ""
	}
	return strings.TrimSuffix(h.cfg.BaseURL, "/") + "/v1/tasks/" + t.ID + "/download"
}

// handleDownload serves the rendered artifact of a completed translate task.
func (h *Handler) handleDownload(c *gin.Context) {
	t, err := h.store.Get(c.Request.Context(), c.Param("taskId"))
	if errors.Is(err, task.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Task store unavailable"})
		return
	}
	if t.Kind != task.KindTranslate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task has no downloadable artifact"})
		return
	}
	if t.Status != task.StatusCompleted || t.Result == nil || t.Result.Subtitle == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task is not completed"})
		return
	}

	art := t.Result.Subtitle
	if _, err := os.Stat(art.OutputPath); err != nil {
		c.JSON(http.StatusGone, gin.H{"error": "Artifact no longer on disk"})
		return
	}
	c.FileAttachment(art.OutputPath, art.OutputName)
}

// handleAnalyzeStream is the SSE variant for playlists: one "item" event per
// entry as extraction proceeds. A client disconnect stops the iteration and
// the underlying extraction, which exists only to feed this stream.
func (h *Handler) handleAnalyzeStream(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	err := h.analyzer.Stream(ctx, url, func(v *task.VideoInfo) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		c.SSEvent("item", v)
		c.Writer.Flush()
		return true
	})

	if ctx.Err() != nil {
		// Client went away; nothing left to tell it.
		return
	}
	if err != nil {
		c.SSEvent("error", gin.H{"message": err.Error()})
	} else {
		c.SSEvent("done", gin.H{})
	}
	c.Writer.Flush()
}
