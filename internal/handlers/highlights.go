package handlers

import (
	"net/http"

	"story-playback/internal/highlights"
	"story-playback/internal/middleware"
	"story-playback/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HighlightsHandler struct {
	highlights *highlights.Service
	logger     *zap.Logger
}

func NewHighlightsHandler(svc *highlights.Service, logger *zap.Logger) *HighlightsHandler {
	return &HighlightsHandler{highlights: svc, logger: logger}
}

// List returns another user's highlights with their archived stories.
func (h *HighlightsHandler) List(c *gin.Context) {
	list, err := h.highlights.GetHighlights(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"highlights": list})
}

func (h *HighlightsHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req models.CreateHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	hl, err := h.highlights.CreateFromArchive(c.Request.Context(), userID, req.Title, req.InitialStoryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, hl)
}

func (h *HighlightsHandler) Rename(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req models.RenameHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	hl, err := h.highlights.Rename(c.Request.Context(), userID, c.Param("id"), req.Title)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, hl)
}

func (h *HighlightsHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	if err := h.highlights.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HighlightsHandler) AddStory(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req models.AddHighlightStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	hl, err := h.highlights.AddArchivedStory(c.Request.Context(), userID, c.Param("id"), req.StoryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, hl)
}

func (h *HighlightsHandler) RemoveStory(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	hl, err := h.highlights.RemoveStory(c.Request.Context(), userID, c.Param("id"), c.Param("story_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, hl)
}
