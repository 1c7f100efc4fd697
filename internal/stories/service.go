package stories

import (
	"context"
	"errors"
	"sort"
	"time"

	"story-playback/internal/apperror"
	"story-playback/internal/archive"
	"story-playback/internal/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	TTL         = 24 * time.Hour
	MaxDuration = 60 * time.Second
)

type PublishInput struct {
	Kind     models.SegmentKind
	MediaURL string
	Duration time.Duration
	Link     string
}

type ExpireResult struct {
	Expired  int
	Archived int
}

type Service struct {
	repo    Repository
	archive *archive.Store
	clock   clockwork.Clock
	logger  *zap.Logger
}

func NewService(repo Repository, archiveStore *archive.Store, clock clockwork.Clock, logger *zap.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, archive: archiveStore, clock: clock, logger: logger}
}

// Feed returns the carousel: collections with unseen stories first, then the
// most recently updated.
func (s *Service) Feed(ctx context.Context) ([]models.UserStory, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.Transient(err, "stories_unavailable", "Could not load stories")
	}
	SortFeed(list)
	return list, nil
}

func SortFeed(list []models.UserStory) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.HasNewStory != b.HasNewStory {
			return a.HasNewStory
		}
		return a.LastUpdatedAt.After(b.LastUpdatedAt)
	})
}

// Open marks the user's collection as seen.
func (s *Service) Open(ctx context.Context, userID string) error {
	err := s.repo.MarkSeen(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return apperror.NotFound("stories_not_found", "This user has no active story")
	}
	if err != nil {
		return apperror.Transient(err, "stories_unavailable", "Could not update the story")
	}
	return nil
}

// Publish appends a new organic segment to owner's collection and keeps a
// copy in the owner's archive.
func (s *Service) Publish(ctx context.Context, owner models.StoryUser, in PublishInput) (models.Segment, error) {
	if owner.ID == "" {
		return nil, apperror.Validation("story_owner_required", "Story owner is required")
	}
	if in.MediaURL == "" {
		return nil, apperror.Validation("story_media_required", "Story media is required")
	}
	if in.Duration < 0 || in.Duration > MaxDuration {
		return nil, apperror.Validation("story_duration_invalid", "Story duration must be between 0 and 60 seconds")
	}

	base := models.SegmentBase{ID: uuid.NewString(), Timestamp: s.clock.Now().UTC(), Duration: in.Duration}
	var seg models.Segment
	switch in.Kind {
	case models.KindImage:
		seg = models.ImageSegment{SegmentBase: base, MediaURL: in.MediaURL, Link: in.Link}
	case models.KindVideo:
		seg = models.VideoSegment{SegmentBase: base, MediaURL: in.MediaURL, Link: in.Link}
	default:
		return nil, apperror.Validation("story_type_invalid", "Only image and video stories can be published")
	}

	if err := s.repo.Publish(ctx, owner, seg); err != nil {
		return nil, apperror.Transient(err, "story_not_published", "Could not publish your story")
	}

	if snap, ok := models.ArchiveOf(owner.ID, seg); ok {
		if _, err := s.archive.Archive(ctx, owner.ID, snap); err != nil {
			s.logger.Warn("failed to archive published story",
				zap.String("user_id", owner.ID),
				zap.String("story_id", seg.SegmentID()),
				zap.Error(err))
		}
	}

	s.logger.Info("story published",
		zap.String("user_id", owner.ID),
		zap.String("story_id", seg.SegmentID()),
		zap.String("type", string(seg.Kind())))
	return seg, nil
}

// ExpireBefore drops segments older than TTL relative to now. Organic ones
// are archived first; sponsored ones are discarded.
func (s *Service) ExpireBefore(ctx context.Context, now time.Time) (ExpireResult, error) {
	expired, err := s.repo.Expire(ctx, now.Add(-TTL))
	if err != nil {
		return ExpireResult{}, apperror.Transient(err, "stories_unavailable", "Could not expire stories")
	}

	res := ExpireResult{Expired: len(expired)}
	for _, e := range expired {
		snap, ok := models.ArchiveOf(e.OwnerID, e.Segment)
		if !ok {
			continue
		}
		if _, err := s.archive.Archive(ctx, e.OwnerID, snap); err != nil {
			s.logger.Error("failed to archive expired story",
				zap.String("user_id", e.OwnerID),
				zap.String("story_id", snap.ID),
				zap.Error(err))
			continue
		}
		res.Archived++
	}
	return res, nil
}
