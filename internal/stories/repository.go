package stories

import (
	"context"
	"errors"
	"sync"
	"time"

	"story-playback/internal/models"
)

var ErrNotFound = errors.New("story collection not found")

// Expired is a segment removed from the live feed.
type Expired struct {
	OwnerID string
	Segment models.Segment
}

// Repository stores live story collections, one per user.
type Repository interface {
	List(ctx context.Context) ([]models.UserStory, error)
	Get(ctx context.Context, userID string) (models.UserStory, error)
	// Publish appends seg to owner's collection and marks it unseen.
	Publish(ctx context.Context, owner models.StoryUser, seg models.Segment) error
	MarkSeen(ctx context.Context, userID string) error
	// Expire removes every segment created before cutoff. Collections left
	// without segments are removed.
	Expire(ctx context.Context, cutoff time.Time) ([]Expired, error)
}

var _ Repository = (*Memory)(nil)

type memoryEntry struct {
	user     models.StoryUser
	segments []models.Segment
	hasNew   bool
}

type Memory struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*memoryEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*memoryEntry)}
}

func (m *Memory) List(_ context.Context) ([]models.UserStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.UserStory, 0, len(m.order))
	for _, id := range m.order {
		e := m.entries[id]
		out = append(out, models.NewUserStory(e.user, e.segments, e.hasNew))
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, userID string) (models.UserStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[userID]
	if !ok {
		return models.UserStory{}, ErrNotFound
	}
	return models.NewUserStory(e.user, e.segments, e.hasNew), nil
}

func (m *Memory) Publish(_ context.Context, owner models.StoryUser, seg models.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[owner.ID]
	if !ok {
		e = &memoryEntry{}
		m.entries[owner.ID] = e
		m.order = append(m.order, owner.ID)
	}
	e.user = owner
	e.segments = append(e.segments, seg)
	e.hasNew = true
	return nil
}

func (m *Memory) MarkSeen(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[userID]
	if !ok {
		return ErrNotFound
	}
	e.hasNew = false
	return nil
}

func (m *Memory) Expire(_ context.Context, cutoff time.Time) ([]Expired, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []Expired
	order := m.order[:0]
	for _, id := range m.order {
		e := m.entries[id]
		kept := e.segments[:0]
		for _, seg := range e.segments {
			if seg.CreatedAt().Before(cutoff) {
				expired = append(expired, Expired{OwnerID: id, Segment: seg})
				continue
			}
			kept = append(kept, seg)
		}
		e.segments = kept
		if len(kept) == 0 {
			delete(m.entries, id)
			continue
		}
		order = append(order, id)
	}
	m.order = order
	return expired, nil
}
