package highlights

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"story-playback/internal/apperror"
	"story-playback/internal/archive"
	"story-playback/internal/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	MaxTitleLength = 30
	DefaultTitle   = "My Highlights"
)

type Service struct {
	repo    Repository
	archive *archive.Store
	clock   clockwork.Clock
	logger  *zap.Logger

	// serializes read-modify-write of highlight metadata
	mu sync.Mutex
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

// GetHighlights returns the user's highlights with their archived segments
// filled in. Ids missing from the archive are dropped from Segments.
func (s *Service) GetHighlights(ctx context.Context, userID string) ([]models.Highlight, error) {
	list, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperror.Transient(err, "highlights_unavailable", "Could not load highlights")
	}
	index, err := s.archiveIndex(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = populate(list[i], index)
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, userID, highlightID string) (models.Highlight, error) {
	h, err := s.repo.Get(ctx, userID, highlightID)
	if err != nil {
		return models.Highlight{}, s.repoErr(err)
	}
	index, err := s.archiveIndex(ctx, userID)
	if err != nil {
		return models.Highlight{}, err
	}
	return populate(h, index), nil
}

// AddStoryToHighlight archives story and appends it to the highlight. An
// unknown highlight id is created under the default title.
func (s *Service) AddStoryToHighlight(ctx context.Context, userID, highlightID string, story models.ArchivedStory) (models.Highlight, error) {
	if _, err := s.archive.Archive(ctx, userID, story); err != nil {
		return models.Highlight{}, apperror.Transient(err, "archive_unavailable", "Could not archive the story")
	}

	s.mu.Lock()
	h, err := s.repo.Get(ctx, userID, highlightID)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.Warn("highlight not found, creating it",
			zap.String("user_id", userID),
			zap.String("highlight_id", highlightID))
		h = models.Highlight{
			ID:        highlightID,
			UserID:    userID,
			Title:     DefaultTitle,
			CreatedAt: s.clock.Now(),
		}
	case err != nil:
		s.mu.Unlock()
		return models.Highlight{}, apperror.Transient(err, "highlights_unavailable", "Could not load the highlight")
	}

	if !h.Contains(story.ID) {
		h.SegmentIDs = append(h.SegmentIDs, story.ID)
		if h.CoverSegmentID == "" {
			h.CoverSegmentID = story.ID
		}
	}
	err = s.repo.Save(ctx, h)
	s.mu.Unlock()
	if err != nil {
		return models.Highlight{}, s.saveErr(err)
	}

	s.logger.Info("story added to highlight",
		zap.String("user_id", userID),
		zap.String("highlight_id", h.ID),
		zap.String("story_id", story.ID))
	return s.Get(ctx, userID, h.ID)
}

// AddArchivedStory adds a story that is already in the user's archive.
func (s *Service) AddArchivedStory(ctx context.Context, userID, highlightID, storyID string) (models.Highlight, error) {
	story, err := s.findArchived(ctx, userID, storyID)
	if err != nil {
		return models.Highlight{}, err
	}
	return s.AddStoryToHighlight(ctx, userID, highlightID, story)
}

// CreateHighlight makes a new highlight, optionally seeded with one story
// which also becomes its cover.
func (s *Service) CreateHighlight(ctx context.Context, userID, title string, initial *models.ArchivedStory) (models.Highlight, error) {
	title, err := validateTitle(title)
	if err != nil {
		return models.Highlight{}, err
	}

	h := models.Highlight{
		ID:         "highlight_" + uuid.NewString(),
		UserID:     userID,
		Title:      title,
		SegmentIDs: []string{},
		CreatedAt:  s.clock.Now(),
	}
	if initial != nil {
		if _, err := s.archive.Archive(ctx, userID, *initial); err != nil {
			return models.Highlight{}, apperror.Transient(err, "archive_unavailable", "Could not archive the story")
		}
		h.SegmentIDs = []string{initial.ID}
		h.CoverSegmentID = initial.ID
	}

	if err := s.repo.Save(ctx, h); err != nil {
		return models.Highlight{}, s.saveErr(err)
	}
	s.logger.Info("highlight created",
		zap.String("user_id", userID),
		zap.String("highlight_id", h.ID),
		zap.String("title", title))
	return s.Get(ctx, userID, h.ID)
}

// CreateFromArchive resolves initialStoryID (optional) in the archive before
// creating the highlight.
func (s *Service) CreateFromArchive(ctx context.Context, userID, title, initialStoryID string) (models.Highlight, error) {
	if initialStoryID == "" {
		return s.CreateHighlight(ctx, userID, title, nil)
	}
	story, err := s.findArchived(ctx, userID, initialStoryID)
	if err != nil {
		return models.Highlight{}, err
	}
	return s.CreateHighlight(ctx, userID, title, &story)
}

// RemoveStory drops a story from a highlight. The cover moves to the first
// remaining story, or is cleared.
func (s *Service) RemoveStory(ctx context.Context, userID, highlightID, storyID string) (models.Highlight, error) {
	err := s.modify(ctx, userID, highlightID, func(h *models.Highlight) error {
		kept := make([]string, 0, len(h.SegmentIDs))
		for _, id := range h.SegmentIDs {
			if id != storyID {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(h.SegmentIDs) {
			return apperror.NotFound("highlight_story_not_found", "That story is not part of this highlight")
		}
		h.SegmentIDs = kept
		if h.CoverSegmentID == storyID {
			h.CoverSegmentID = ""
			if len(kept) > 0 {
				h.CoverSegmentID = kept[0]
			}
		}
		return nil
	})
	if err != nil {
		return models.Highlight{}, err
	}
	return s.Get(ctx, userID, highlightID)
}

func (s *Service) Rename(ctx context.Context, userID, highlightID, title string) (models.Highlight, error) {
	title, err := validateTitle(title)
	if err != nil {
		return models.Highlight{}, err
	}
	err = s.modify(ctx, userID, highlightID, func(h *models.Highlight) error {
		h.Title = title
		return nil
	})
	if err != nil {
		return models.Highlight{}, err
	}
	return s.Get(ctx, userID, highlightID)
}

func (s *Service) Delete(ctx context.Context, userID, highlightID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, userID, highlightID); err != nil {
		return s.repoErr(err)
	}
	s.logger.Info("highlight deleted", zap.String("user_id", userID), zap.String("highlight_id", highlightID))
	return nil
}

func (s *Service) modify(ctx context.Context, userID, highlightID string, fn func(*models.Highlight) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.repo.Get(ctx, userID, highlightID)
	if err != nil {
		return s.repoErr(err)
	}
	if err := fn(&h); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, h); err != nil {
		return s.saveErr(err)
	}
	return nil
}

func (s *Service) findArchived(ctx context.Context, userID, storyID string) (models.ArchivedStory, error) {
	list, err := s.archive.List(ctx, userID)
	if err != nil {
		return models.ArchivedStory{}, apperror.Transient(err, "archive_unavailable", "Could not load your archive")
	}
	for _, st := range list {
		if st.ID == storyID {
			return st, nil
		}
	}
	return models.ArchivedStory{}, apperror.NotFound("archived_story_not_found", "That story is not in your archive")
}

func (s *Service) archiveIndex(ctx context.Context, userID string) (map[string]models.ArchivedStory, error) {
	list, err := s.archive.List(ctx, userID)
	if err != nil {
		return nil, apperror.Transient(err, "archive_unavailable", "Could not load your archive")
	}
	index := make(map[string]models.ArchivedStory, len(list))
	for _, st := range list {
		index[st.ID] = st
	}
	return index, nil
}

func (s *Service) repoErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperror.NotFound("highlight_not_found", "Highlight not found")
	}
	return apperror.Transient(err, "highlights_unavailable", "Could not load the highlight")
}

func (s *Service) saveErr(err error) error {
	if errors.Is(err, ErrIDTaken) {
		return apperror.NotFound("highlight_not_found", "Highlight not found")
	}
	return apperror.Transient(err, "highlights_unavailable", "Could not save the highlight")
}

func populate(h models.Highlight, index map[string]models.ArchivedStory) models.Highlight {
	h.Segments = make([]models.ArchivedStory, 0, len(h.SegmentIDs))
	for _, id := range h.SegmentIDs {
		if st, ok := index[id]; ok {
			h.Segments = append(h.Segments, st)
		}
	}
	return h
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.Validation("highlight_title_required", "Highlight title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", apperror.Validation("highlight_title_too_long", "Highlight title must be at most 30 characters")
	}
	return title, nil
}
