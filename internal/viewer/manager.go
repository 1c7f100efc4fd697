package viewer

import (
	"context"
	"sync"
	"time"

	"story-playback/internal/apperror"
	"story-playback/internal/highlights"
	"story-playback/internal/metrics"
	"story-playback/internal/models"
	"story-playback/internal/playback"
	"story-playback/internal/stories"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const DefaultIdleTTL = 10 * time.Minute

// Publisher fans session messages out to subscribers, typically the
// websocket hub. CloseSession disconnects the subscribers of a session that
// has been removed.
type Publisher interface {
	Publish(sessionID string, payload any)
	CloseSession(sessionID string)
}

type Config struct {
	BaseURL string
	IdleTTL time.Duration
}

type Manager struct {
	stories    *stories.Service
	highlights *highlights.Service
	publisher  Publisher
	clock      clockwork.Clock
	logger     *zap.Logger
	cfg        Config

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(feed *stories.Service, hl *highlights.Service, publisher Publisher, clock clockwork.Clock, logger *zap.Logger, cfg Config) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	return &Manager{
		stories:    feed,
		highlights: hl,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
		cfg:        cfg,
		sessions:   make(map[string]*Session),
	}
}

// Open starts playback of the current feed at startUserID's collection.
func (m *Manager) Open(ctx context.Context, viewerID, startUserID string) (*Session, error) {
	feed, err := m.stories.Feed(ctx)
	if err != nil {
		return nil, err
	}

	start := -1
	for i, col := range feed {
		if col.User.ID == startUserID {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, apperror.NotFound("stories_not_found", "This user has no active story")
	}

	return m.start(viewerID, ModeFeed, feed, start), nil
}

// OpenHighlight plays a highlight as a single collection of its archived
// segments, in the order the owner arranged them and under the highlight title.
func (m *Manager) OpenHighlight(ctx context.Context, viewerID, ownerID, highlightID string) (*Session, error) {
	h, err := m.highlights.Get(ctx, ownerID, highlightID)
	if err != nil {
		return nil, err
	}
	if len(h.Segments) == 0 {
		return nil, apperror.NotFound("highlight_empty", "This highlight has no stories to show")
	}

	segments := make([]models.Segment, 0, len(h.Segments))
	for _, st := range h.Segments {
		segments = append(segments, st.Segment())
	}
	col := models.UserStory{
		User:          models.StoryUser{ID: ownerID, Username: h.Title},
		Segments:      segments,
		LastUpdatedAt: segments[0].CreatedAt(),
	}

	return m.start(viewerID, ModeHighlight, []models.UserStory{col}, 0), nil
}

func (m *Manager) start(viewerID string, mode Mode, cols []models.UserStory, start int) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		ViewerID:   viewerID,
		Mode:       mode,
		m:          m,
		cols:       cols,
		lastActive: m.clock.Now(),
	}
	s.player = playback.NewPlayer(playback.NewSequencer(cols, start),
		playback.WithClock(m.clock),
		playback.WithLogger(m.logger.With(zap.String("session_id", s.ID))),
		playback.WithListener(func(ev playback.Event) { m.onEvent(s, ev) }))
	s.watch()

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	metrics.ViewerSessionsActive.Inc()

	m.logger.Info("viewer session opened",
		zap.String("session_id", s.ID),
		zap.String("viewer_id", viewerID),
		zap.String("mode", string(mode)))

	s.player.Start()
	return s
}

// Session looks up a session owned by viewerID and marks it active.
func (m *Manager) Session(viewerID, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || s.ViewerID != viewerID {
		return nil, apperror.NotFound("viewer_not_found", "Story viewer session not found")
	}
	s.touch(m.clock.Now())
	return s, nil
}

func (m *Manager) Close(viewerID, id string) error {
	s, err := m.Session(viewerID, id)
	if err != nil {
		return err
	}
	m.remove(s)
	return nil
}

// Reap removes sessions whose player has closed and sessions idle for longer
// than the configured TTL. It returns the number removed.
func (m *Manager) Reap(now time.Time) int {
	var stale []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		finished := false
		select {
		case <-s.Done():
			finished = true
		default:
		}
		if finished || now.Sub(s.idleSince()) > m.cfg.IdleTTL {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		m.finish(s)
	}
	if len(stale) > 0 {
		metrics.ViewerSessionsReapedTotal.Add(float64(len(stale)))
		m.logger.Info("viewer sessions reaped", zap.Int("count", len(stale)))
	}
	return len(stale)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		m.finish(s)
	}
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	_, ok := m.sessions[s.ID]
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	if !ok {
		s.shutdown()
		return
	}
	m.finish(s)
	m.logger.Info("viewer session closed", zap.String("session_id", s.ID))
}

// finish stops a session already removed from the map and disconnects its
// subscribers.
func (m *Manager) finish(s *Session) {
	s.shutdown()
	metrics.ViewerSessionsActive.Dec()
	if m.publisher != nil {
		m.publisher.CloseSession(s.ID)
	}
}

func (m *Manager) onEvent(s *Session, ev playback.Event) {
	if ev.Type == playback.EventSegmentStarted && ev.Segment != nil {
		metrics.SegmentsPlayedTotal.WithLabelValues(string(ev.Segment.Kind())).Inc()
		if ad, ok := models.AdOf(ev.Segment); ok {
			metrics.AdImpressionsTotal.WithLabelValues(ad.Advertiser.Username).Inc()
		}
		if s.Mode == ModeFeed && s.enterCollection(ev.Owner.ID) {
			m.markSeen(ev.Owner.ID)
		}
	}
	m.publish(s, ev)
}

func (m *Manager) markSeen(ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.stories.Open(ctx, ownerID); err != nil {
		m.logger.Warn("failed to mark story seen", zap.String("user_id", ownerID), zap.Error(err))
	}
}

func (m *Manager) publish(s *Session, ev playback.Event) {
	if m.publisher == nil {
		return
	}
	m.publisher.Publish(s.ID, Message{Event: ev.Type, Seq: ev.Seq, View: s.fromEvent(ev)})
}
