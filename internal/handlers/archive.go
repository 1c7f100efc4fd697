package handlers

import (
	"net/http"

	"story-playback/internal/apperror"
	"story-playback/internal/archive"
	"story-playback/internal/middleware"
	"story-playback/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ArchiveHandler serves the caller's own story archive.
type ArchiveHandler struct {
	archive *archive.Store
	logger  *zap.Logger
}

func NewArchiveHandler(store *archive.Store, logger *zap.Logger) *ArchiveHandler {
	return &ArchiveHandler{archive: store, logger: logger}
}

func (h *ArchiveHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	list, err := h.archive.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, apperror.Transient(err, "archive_unavailable", "Could not load your archive"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": list})
}

func (h *ArchiveHandler) Archive(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req models.ArchiveStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	added, err := h.archive.Archive(c.Request.Context(), userID, req.Story(userID))
	if err != nil {
		respondError(c, h.logger, apperror.Transient(err, "archive_unavailable", "Could not archive the story"))
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"archived": added})
}

func (h *ArchiveHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	removed, err := h.archive.Delete(c.Request.Context(), userID, c.Param("story_id"))
	if err != nil {
		respondError(c, h.logger, apperror.Transient(err, "archive_unavailable", "Could not delete the story"))
		return
	}
	if !removed {
		respondError(c, h.logger, apperror.NotFound("archived_story_not_found", "That story is not in your archive"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ArchiveHandler) DeleteAll(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	if err := h.archive.DeleteAll(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, apperror.Transient(err, "archive_unavailable", "Could not clear your archive"))
		return
	}
	c.Status(http.StatusNoContent)
}
