package handlers

import (
	"net/http"

	"story-playback/internal/comments"
	"story-playback/internal/metrics"
	"story-playback/internal/middleware"
	"story-playback/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentsHandler struct {
	comments *comments.Service
	logger   *zap.Logger
}

func NewCommentsHandler(svc *comments.Service, logger *zap.Logger) *CommentsHandler {
	return &CommentsHandler{comments: svc, logger: logger}
}

func (h *CommentsHandler) List(c *gin.Context) {
	list, err := h.comments.GetComments(c.Request.Context(), c.Param("content_id"), models.ContentType(c.Param("content_type")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

func (h *CommentsHandler) Add(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req models.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	contentType := models.ContentType(c.Param("content_type"))
	author := models.StoryUser{ID: userID, Username: req.Username, AvatarURL: req.AvatarURL}
	comment, err := h.comments.AddComment(c.Request.Context(), c.Param("content_id"), contentType, req.Text, author)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	metrics.CommentsPostedTotal.WithLabelValues(string(contentType)).Inc()
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentsHandler) Count(c *gin.Context) {
	n, err := h.comments.CommentCount(c.Request.Context(), c.Param("content_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content_id": c.Param("content_id"), "count": n})
}
