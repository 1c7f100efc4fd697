package handlers

import (
	"context"
	"net/http"
	"time"

	"story-playback/internal/apperror"
	"story-playback/internal/metrics"
	"story-playback/internal/middleware"
	"story-playback/internal/models"
	"story-playback/internal/stories"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	publishRateLimit  = 20
	publishRateWindow = time.Minute
)

// RateLimiter is satisfied by the redis cache.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID, action string, limit int, window time.Duration) (bool, error)
}

type StoriesHandler struct {
	stories *stories.Service
	limiter RateLimiter
	logger  *zap.Logger
}

func NewStoriesHandler(svc *stories.Service, limiter RateLimiter, logger *zap.Logger) *StoriesHandler {
	return &StoriesHandler{stories: svc, limiter: limiter, logger: logger}
}

func (h *StoriesHandler) GetFeed(c *gin.Context) {
	feed, err := h.stories.Feed(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": feed})
}

func (h *StoriesHandler) PublishStory(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	if h.limiter != nil {
		allowed, err := h.limiter.CheckRateLimit(c.Request.Context(), userID, "publish_story", publishRateLimit, publishRateWindow)
		if err != nil {
			h.logger.Error("rate limit check failed", zap.Error(err))
		} else if !allowed {
			c.JSON(http.StatusTooManyRequests, errorBody{Error: "You are posting too fast", Code: "story_rate_limited", Remedy: "try again in a moment"})
			return
		}
	}

	var req models.PublishSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	owner := models.StoryUser{ID: userID, Username: req.Username, AvatarURL: req.Avatar}
	seg, err := h.stories.Publish(c.Request.Context(), owner, stories.PublishInput{
		Kind:     req.Type,
		MediaURL: req.MediaURL,
		Duration: time.Duration(req.Duration * float64(time.Second)),
		Link:     req.Link,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	metrics.StoriesPublishedTotal.WithLabelValues(string(seg.Kind())).Inc()

	data, err := models.EncodeSegment(seg)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Data(http.StatusCreated, "application/json; charset=utf-8", data)
}

// MarkSeen clears the unseen flag of a user's collection.
func (h *StoriesHandler) MarkSeen(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		respondError(c, h.logger, apperror.Validation("user_id_required", "User id is required"))
		return
	}
	if err := h.stories.Open(c.Request.Context(), userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
