package comments

import (
	"context"
	"sort"
	"sync"

	"story-playback/internal/models"
)

// Store persists comments. List returns only comments of the given content
// type, oldest first.
type Store interface {
	List(ctx context.Context, contentID string, contentType models.ContentType) ([]models.Comment, error)
	Add(ctx context.Context, c models.Comment) error
	Count(ctx context.Context, contentID string) (int, error)
}

var _ Store = (*Memory)(nil)

type Memory struct {
	mu        sync.RWMutex
	byContent map[string][]models.Comment
}

func NewMemory() *Memory {
	return &Memory{byContent: make(map[string][]models.Comment)}
}

func (m *Memory) List(_ context.Context, contentID string, contentType models.ContentType) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Comment{}
	for _, c := range m.byContent[contentID] {
		if c.ContentType == contentType {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (m *Memory) Add(_ context.Context, c models.Comment) error {
	m.mu.Lock()
	m.byContent[c.ContentID] = append(m.byContent[c.ContentID], c)
	m.mu.Unlock()
	return nil
}

// Count counts every comment on contentID regardless of content type.
func (m *Memory) Count(_ context.Context, contentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byContent[contentID]), nil
}
