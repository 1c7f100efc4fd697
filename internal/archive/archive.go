package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"story-playback/internal/kv"
	"story-playback/internal/models"

	"go.uber.org/zap"
)

const keyPrefix = "akmax_story_archive_"

func Key(userID string) string {
	return keyPrefix + userID
}

// Store keeps every user's archived stories as one JSON array per user.
type Store struct {
	kv     kv.Store
	logger *zap.Logger
}

func NewStore(store kv.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: store, logger: logger}
}

// List returns the archive in insertion order. A user without an archive has
// an empty one.
func (s *Store) List(ctx context.Context, userID string) ([]models.ArchivedStory, error) {
	data, err := s.kv.Get(ctx, Key(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return []models.ArchivedStory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", userID, err)
	}
	return decode(data)
}

// Archive stores story unless an entry with the same id already exists.
// It reports whether the archive changed.
func (s *Store) Archive(ctx context.Context, userID string, story models.ArchivedStory) (bool, error) {
	if story.ID == "" {
		return false, errors.New("archived story needs an id")
	}
	if story.UserID == "" {
		story.UserID = userID
	}

	added := false
	err := s.kv.Update(ctx, Key(userID), func(current []byte) ([]byte, error) {
		list, err := decode(current)
		if err != nil {
			return nil, err
		}
		for _, existing := range list {
			if existing.ID == story.ID {
				return current, nil
			}
		}
		added = true
		return json.Marshal(append(list, story))
	})
	if err != nil {
		return false, fmt.Errorf("archive story %s: %w", story.ID, err)
	}

	if added {
		s.logger.Debug("story archived", zap.String("user_id", userID), zap.String("story_id", story.ID))
	}
	return added, nil
}

// Delete removes one story and reports whether it was present.
func (s *Store) Delete(ctx context.Context, userID, storyID string) (bool, error) {
	removed := false
	err := s.kv.Update(ctx, Key(userID), func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, nil
		}
		list, err := decode(current)
		if err != nil {
			return nil, err
		}
		kept := list[:0]
		for _, st := range list {
			if st.ID == storyID {
				removed = true
				continue
			}
			kept = append(kept, st)
		}
		if !removed {
			return current, nil
		}
		return json.Marshal(kept)
	})
	if err != nil {
		return false, fmt.Errorf("delete archived story %s: %w", storyID, err)
	}
	return removed, nil
}

func (s *Store) DeleteAll(ctx context.Context, userID string) error {
	if err := s.kv.Delete(ctx, Key(userID)); err != nil {
		return fmt.Errorf("clear archive %s: %w", userID, err)
	}
	s.logger.Info("archive cleared", zap.String("user_id", userID))
	return nil
}

func decode(data []byte) ([]models.ArchivedStory, error) {
	list := []models.ArchivedStory{}
	if len(data) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	return list, nil
}
