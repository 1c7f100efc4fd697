package comments

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"story-playback/internal/apperror"
	"story-playback/internal/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	MaxTextLength = 2200

	rateLimitAction = "comment"
	rateLimit       = 30
	rateWindow      = time.Minute
)

var ErrRateLimited = errors.New("comment rate limit exceeded")

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID, action string, limit int, window time.Duration) (bool, error)
}

type Service struct {
	store   Store
	limiter RateLimiter
	clock   clockwork.Clock
	logger  *zap.Logger
}

// NewService wires a comment store. limiter may be nil.
func NewService(store Store, limiter RateLimiter, clock clockwork.Clock, logger *zap.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, limiter: limiter, clock: clock, logger: logger}
}

func (s *Service) GetComments(ctx context.Context, contentID string, contentType models.ContentType) ([]models.Comment, error) {
	if err := validateTarget(contentID, contentType); err != nil {
		return nil, err
	}
	list, err := s.store.List(ctx, contentID, contentType)
	if err != nil {
		return nil, apperror.Transient(err, "comments_unavailable", "Could not load comments")
	}
	return list, nil
}

func (s *Service) AddComment(ctx context.Context, contentID string, contentType models.ContentType, text string, author models.StoryUser) (models.Comment, error) {
	if err := validateTarget(contentID, contentType); err != nil {
		return models.Comment{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Comment{}, apperror.Validation("comment_text_required", "Comment cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return models.Comment{}, apperror.Validation("comment_text_too_long", "Comment must be at most 2200 characters")
	}

	if s.limiter != nil {
		allowed, err := s.limiter.CheckRateLimit(ctx, author.ID, rateLimitAction, rateLimit, rateWindow)
		if err != nil {
			s.logger.Warn("rate limit check failed", zap.Error(err))
		} else if !allowed {
			return models.Comment{}, apperror.Transient(ErrRateLimited, "comment_rate_limited", "You are commenting too fast")
		}
	}

	c := models.Comment{
		ID:          "c-" + uuid.NewString(),
		ContentID:   contentID,
		ContentType: contentType,
		User:        author,
		Text:        text,
		Timestamp:   s.clock.Now().UTC(),
	}
	if err := s.store.Add(ctx, c); err != nil {
		return models.Comment{}, apperror.Transient(err, "comment_not_saved", "Could not post your comment")
	}

	s.logger.Debug("comment added",
		zap.String("comment_id", c.ID),
		zap.String("content_id", contentID),
		zap.String("content_type", string(contentType)))
	return c, nil
}

func (s *Service) CommentCount(ctx context.Context, contentID string) (int, error) {
	if contentID == "" {
		return 0, apperror.Validation("content_id_required", "Content id is required")
	}
	n, err := s.store.Count(ctx, contentID)
	if err != nil {
		return 0, apperror.Transient(err, "comments_unavailable", "Could not count comments")
	}
	return n, nil
}

func validateTarget(contentID string, contentType models.ContentType) error {
	if contentID == "" {
		return apperror.Validation("content_id_required", "Content id is required")
	}
	if !contentType.Valid() {
		return apperror.Validation("content_type_invalid", "Content type must be post, reel, story or article")
	}
	return nil
}
