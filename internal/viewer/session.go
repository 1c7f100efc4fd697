package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"story-playback/internal/apperror"
	"story-playback/internal/models"
	"story-playback/internal/playback"
)

type Mode string

const (
	ModeFeed      Mode = "feed"
	ModeHighlight Mode = "highlight"
)

// View is the client-facing state of a session.
type View struct {
	SessionID    string                 `json:"session_id"`
	Mode         Mode                   `json:"mode"`
	Position     playback.Position      `json:"position"`
	Owner        models.StoryUser       `json:"owner"`
	Segment      json.RawMessage        `json:"segment,omitempty"`
	SegmentCount int                    `json:"segment_count"`
	Presentation *playback.Presentation `json:"presentation,omitempty"`
	Progress     float64                `json:"progress"`
	DurationMS   int64                  `json:"duration_ms"`
	RemainingMS  int64                  `json:"remaining_ms"`
	Paused       bool                   `json:"paused"`
	Closed       bool                   `json:"closed"`
	Media        playback.MediaCommand  `json:"media,omitempty"`
}

// Message is pushed to websocket subscribers of a session.
type Message struct {
	Event playback.EventType `json:"event"`
	Seq   uint64             `json:"seq"`
	View  View               `json:"view"`
}

// Session is one viewer's pass through a list of story collections.
type Session struct {
	ID       string
	ViewerID string
	Mode     Mode

	m      *Manager
	player *playback.Player
	cols   []models.UserStory

	stopWatch context.CancelFunc
	watchDone chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	lastActive time.Time
	lastOwner  string
}

func (s *Session) Next() (View, error)   { return s.run(s.player.Advance) }
func (s *Session) Prev() (View, error)   { return s.run(s.player.Retreat) }
func (s *Session) Pause() (View, error)  { return s.run(s.player.Pause) }
func (s *Session) Resume() (View, error) { return s.run(s.player.Resume) }
func (s *Session) Toggle() (View, error) { return s.run(s.player.TogglePause) }

func (s *Session) Tap(x, width float64) (playback.Action, View, error) {
	var action playback.Action
	v, err := s.run(func() error {
		var err error
		action, err = s.player.Tap(x, width)
		return err
	})
	return action, v, err
}

// Media forwards a video element event for segmentID.
func (s *Session) Media(req models.MediaEventRequest) (View, error) {
	return s.run(func() error {
		switch req.Event {
		case "loaded":
			return s.player.MediaLoaded(req.SegmentID, time.Duration(req.DurationMS*float64(time.Millisecond)))
		case "ended":
			return s.player.MediaEnded(req.SegmentID)
		case "error":
			cause := req.Error
			if cause == "" {
				cause = "media element error"
			}
			return s.player.MediaFailed(req.SegmentID, errors.New(cause))
		default:
			return apperror.Validation("media_event_invalid", "Media event must be loaded, ended or error")
		}
	})
}

// View returns the current state without touching the session.
func (s *Session) View() View {
	st := s.player.Snapshot()
	return s.build(st.Position, st.Owner, st.Segment, st.Progress, st.Duration, st.Remaining, st.Paused, st.Closed, playback.MediaNone)
}

func (s *Session) Done() <-chan struct{} {
	return s.player.Done()
}

func (s *Session) run(op func() error) (View, error) {
	s.touch(s.m.clock.Now())
	if err := op(); err != nil {
		switch {
		case errors.Is(err, playback.ErrClosed):
			return View{}, apperror.Validation("viewer_closed", "This story viewer has already closed")
		case errors.Is(err, playback.ErrSegmentMismatch):
			return View{}, apperror.Validation("media_segment_mismatch", "That segment is no longer playing")
		}
		return View{}, err
	}
	return s.View(), nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// enterCollection reports whether ownerID differs from the owner of the
// previously started segment.
func (s *Session) enterCollection(ownerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastOwner == ownerID {
		return false
	}
	s.lastOwner = ownerID
	return true
}

func (s *Session) watch() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopWatch = cancel
	s.watchDone = make(chan struct{})
	go func() {
		defer close(s.watchDone)
		s.player.Watch(ctx, func(ev playback.Event) { s.m.publish(s, ev) })
	}()
}

func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		s.player.Close()
		if s.stopWatch != nil {
			s.stopWatch()
			<-s.watchDone
		}
	})
}

func (s *Session) fromEvent(ev playback.Event) View {
	remaining := time.Duration(float64(ev.Duration) * (1 - ev.Progress/100))
	return s.build(ev.Position, ev.Owner, ev.Segment, ev.Progress, ev.Duration, remaining, ev.Paused, ev.Type == playback.EventClosed, ev.Media)
}

func (s *Session) build(pos playback.Position, owner models.StoryUser, seg models.Segment, progress float64, duration, remaining time.Duration, paused, closed bool, media playback.MediaCommand) View {
	v := View{
		SessionID:   s.ID,
		Mode:        s.Mode,
		Position:    pos,
		Owner:       owner,
		Progress:    progress,
		DurationMS:  duration.Milliseconds(),
		RemainingMS: max(remaining, 0).Milliseconds(),
		Paused:      paused,
		Closed:      closed,
		Media:       media,
	}
	if closed || seg == nil {
		return v
	}
	if pos.Collection >= 0 && pos.Collection < len(s.cols) {
		v.SegmentCount = len(s.cols[pos.Collection].Segments)
	}
	if data, err := models.EncodeSegment(seg); err == nil {
		v.Segment = data
	}
	p := playback.Present(owner, seg, s.m.clock.Now(), s.m.cfg.BaseURL)
	v.Presentation = &p
	return v
}
