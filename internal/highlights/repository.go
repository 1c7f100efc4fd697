package highlights

import (
	"context"
	"errors"
	"sync"

	"story-playback/internal/models"
)

var (
	ErrNotFound = errors.New("highlight not found")
	ErrIDTaken  = errors.New("highlight id belongs to another user")
)

// Repository persists highlight metadata. Segment payloads live in the
// archive and are joined in by the Service.
type Repository interface {
	List(ctx context.Context, userID string) ([]models.Highlight, error)
	Get(ctx context.Context, userID, id string) (models.Highlight, error)
	Save(ctx context.Context, h models.Highlight) error
	Delete(ctx context.Context, userID, id string) error
}

var _ Repository = (*Memory)(nil)

type Memory struct {
	mu     sync.RWMutex
	byUser map[string][]models.Highlight
}

func NewMemory() *Memory {
	return &Memory{byUser: make(map[string][]models.Highlight)}
}

func (m *Memory) List(_ context.Context, userID string) ([]models.Highlight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.byUser[userID]
	out := make([]models.Highlight, 0, len(src))
	for _, h := range src {
		out = append(out, copyHighlight(h))
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, userID, id string) (models.Highlight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, h := range m.byUser[userID] {
		if h.ID == id {
			return copyHighlight(h), nil
		}
	}
	return models.Highlight{}, ErrNotFound
}

func (m *Memory) Save(_ context.Context, h models.Highlight) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for owner, list := range m.byUser {
		if owner == h.UserID {
			continue
		}
		for _, other := range list {
			if other.ID == h.ID {
				return ErrIDTaken
			}
		}
	}

	h = copyHighlight(h)
	h.Segments = nil
	list := m.byUser[h.UserID]
	for i := range list {
		if list[i].ID == h.ID {
			list[i] = h
			return nil
		}
	}
	m.byUser[h.UserID] = append(list, h)
	return nil
}

func (m *Memory) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			m.byUser[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func copyHighlight(h models.Highlight) models.Highlight {
	h.SegmentIDs = append([]string{}, h.SegmentIDs...)
	if h.Segments != nil {
		h.Segments = append([]models.ArchivedStory{}, h.Segments...)
	}
	return h
}
