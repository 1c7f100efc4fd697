package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"story-playback/internal/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var (
	ErrClosed          = errors.New("player closed")
	ErrSegmentMismatch = errors.New("media event for a segment that is not playing")
)

type EventType string

const (
	EventSegmentStarted EventType = "segment.started"
	EventRetimed        EventType = "segment.retimed"
	EventProgress       EventType = "progress"
	EventPaused         EventType = "paused"
	EventResumed        EventType = "resumed"
	EventClosed         EventType = "closed"
)

// MediaCommand tells a video element what to do so that it follows the player.
type MediaCommand string

const (
	MediaNone    MediaCommand = ""
	MediaRestart MediaCommand = "restart"
	MediaPlay    MediaCommand = "play"
	MediaPause   MediaCommand = "pause"
)

type Event struct {
	Seq      uint64
	Type     EventType
	Position Position
	Segment  models.Segment
	Owner    models.StoryUser
	Progress float64
	Duration time.Duration
	Paused   bool
	Media    MediaCommand
}

type Listener func(Event)

type State struct {
	Position  Position
	Segment   models.Segment
	Owner     models.StoryUser
	Progress  float64
	Duration  time.Duration
	Remaining time.Duration
	Paused    bool
	Closed    bool
}

type Option func(*Player)

func WithClock(clock clockwork.Clock) Option {
	return func(p *Player) { p.clock = clock }
}

func WithListener(l Listener) Option {
	return func(p *Player) { p.listener = l }
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Player) { p.logger = logger }
}

// Player drives a Sequencer in time. Every active segment owns exactly one
// scheduled completion; any transition cancels it and bumps the generation so a
// callback that already fired cannot advance a second time.
type Player struct {
	mu       sync.Mutex
	seq      *Sequencer
	clock    clockwork.Clock
	listener Listener
	logger   *zap.Logger

	timer clockwork.Timer
	gen   uint64
	seqNo uint64

	started bool
	paused  bool
	done    chan struct{}
	ended   bool

	duration time.Duration
	consumed time.Duration
	runStart time.Time
}

func NewPlayer(seq *Sequencer, opts ...Option) *Player {
	p := &Player{
		seq:    seq,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins playback of the current segment. An empty sequence closes at once.
func (p *Player) Start() {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	evs := p.startSegmentLocked()
	p.mu.Unlock()
	p.emit(evs)
}

func (p *Player) Advance() error {
	return p.do(func() []Event { return p.advanceLocked() })
}

// Retreat is a no-op at the first segment of the first collection: the running
// segment keeps its progress and its pending completion.
func (p *Player) Retreat() error {
	return p.do(func() []Event {
		if !p.seq.Retreat() {
			return nil
		}
		return p.startSegmentLocked()
	})
}

func (p *Player) Pause() error {
	return p.do(p.pauseLocked)
}

func (p *Player) Resume() error {
	return p.do(p.resumeLocked)
}

func (p *Player) TogglePause() error {
	return p.do(func() []Event {
		if p.paused {
			return p.resumeLocked()
		}
		return p.pauseLocked()
	})
}

// Close stops playback for good, for example when the viewer is dismissed.
func (p *Player) Close() {
	p.mu.Lock()
	evs := p.closeLocked()
	p.mu.Unlock()
	p.emit(evs)
}

// MediaLoaded re-times a video segment once its natural length is known.
func (p *Player) MediaLoaded(segmentID string, length time.Duration) error {
	return p.media(segmentID, func(seg models.Segment) []Event {
		consumed := p.consumedLocked()
		p.duration = ResolveDuration(seg, length)
		if !p.paused {
			p.consumed = consumed
			p.runStart = p.clock.Now()
			p.scheduleLocked(max(p.duration-consumed, 0))
		}
		p.logger.Debug("segment retimed",
			zap.String("segment_id", segmentID),
			zap.Duration("duration", p.duration))
		return []Event{p.eventLocked(EventRetimed, MediaNone)}
	})
}

// MediaEnded advances past a video segment whose playback finished.
func (p *Player) MediaEnded(segmentID string) error {
	return p.media(segmentID, func(models.Segment) []Event {
		if p.paused {
			return nil
		}
		return p.advanceLocked()
	})
}

// MediaFailed keeps the fallback duration that was scheduled when the segment
// started, so the sequence never stalls on a broken video.
func (p *Player) MediaFailed(segmentID string, cause error) error {
	return p.media(segmentID, func(seg models.Segment) []Event {
		p.logger.Warn("media failed, using fallback duration",
			zap.String("segment_id", segmentID),
			zap.Duration("duration", p.duration),
			zap.Error(cause))
		return nil
	})
}

func (p *Player) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progressLocked()
}

func (p *Player) Remaining() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration - p.consumedLocked()
}

func (p *Player) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := State{
		Position: p.seq.Position(),
		Paused:   p.paused,
		Closed:   p.seq.Closed(),
	}
	if seg, ok := p.seq.Current(); ok {
		col, _ := p.seq.Collection()
		st.Segment = seg
		st.Owner = col.User
		st.Progress = p.progressLocked()
		st.Duration = p.duration
		st.Remaining = p.duration - p.consumedLocked()
	}
	return st
}

// Done is closed once the player reaches its terminal state.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Watch reports progress every ProgressInterval until ctx ends or the player
// closes. It never advances the sequence itself.
func (p *Player) Watch(ctx context.Context, fn func(Event)) {
	ticker := p.clock.NewTicker(ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.Chan():
			p.mu.Lock()
			if p.paused || !p.started || p.seq.Closed() {
				p.mu.Unlock()
				continue
			}
			ev := p.eventLocked(EventProgress, MediaNone)
			p.mu.Unlock()
			fn(ev)
		}
	}
}

func (p *Player) do(op func() []Event) error {
	p.mu.Lock()
	if p.seq.Closed() {
		p.mu.Unlock()
		return ErrClosed
	}
	evs := op()
	p.mu.Unlock()
	p.emit(evs)
	return nil
}

func (p *Player) media(segmentID string, op func(models.Segment) []Event) error {
	return p.doErr(func() ([]Event, error) {
		seg, _ := p.seq.Current()
		if seg.SegmentID() != segmentID || !seg.Kind().IsVideo() {
			return nil, ErrSegmentMismatch
		}
		return op(seg), nil
	})
}

func (p *Player) doErr(op func() ([]Event, error)) error {
	p.mu.Lock()
	if p.seq.Closed() {
		p.mu.Unlock()
		return ErrClosed
	}
	evs, err := op()
	p.mu.Unlock()
	p.emit(evs)
	return err
}

func (p *Player) startSegmentLocked() []Event {
	seg, ok := p.seq.Current()
	if !ok {
		return p.closeLocked()
	}

	p.duration = ResolveDuration(seg, 0)
	p.consumed = 0
	p.runStart = p.clock.Now()

	media := MediaNone
	if seg.Kind().IsVideo() {
		media = MediaRestart
	}

	if p.paused {
		p.cancelLocked()
	} else {
		p.scheduleLocked(p.duration)
	}

	p.logger.Debug("segment started",
		zap.String("segment_id", seg.SegmentID()),
		zap.String("kind", string(seg.Kind())),
		zap.Duration("duration", p.duration))

	return []Event{p.eventLocked(EventSegmentStarted, media)}
}

func (p *Player) advanceLocked() []Event {
	if p.seq.Advance() {
		return p.startSegmentLocked()
	}
	return p.closeLocked()
}

func (p *Player) pauseLocked() []Event {
	if p.paused {
		return nil
	}
	p.consumed = p.consumedLocked()
	p.paused = true
	p.cancelLocked()
	return []Event{p.eventLocked(EventPaused, p.mediaFor(MediaPause))}
}

// resumeLocked schedules the remainder, duration × (1 − progress/100), kept
// in integer nanoseconds as duration − consumed.
func (p *Player) resumeLocked() []Event {
	if !p.paused {
		return nil
	}
	p.paused = false
	p.runStart = p.clock.Now()
	p.scheduleLocked(max(p.duration-p.consumed, 0))
	return []Event{p.eventLocked(EventResumed, p.mediaFor(MediaPlay))}
}

func (p *Player) closeLocked() []Event {
	p.cancelLocked()
	p.seq.Close()
	if p.ended {
		return nil
	}
	p.ended = true
	close(p.done)
	p.logger.Debug("player closed")

	p.seqNo++
	return []Event{{Seq: p.seqNo, Type: EventClosed, Position: p.seq.Position(), Paused: p.paused}}
}

func (p *Player) scheduleLocked(d time.Duration) {
	p.cancelLocked()
	gen := p.gen
	p.timer = p.clock.AfterFunc(d, func() { p.expire(gen) })
}

func (p *Player) cancelLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen++
}

func (p *Player) expire(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.paused || p.seq.Closed() {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	evs := p.advanceLocked()
	p.mu.Unlock()
	p.emit(evs)
}

func (p *Player) consumedLocked() time.Duration {
	if p.paused || !p.started {
		return p.consumed
	}
	return min(p.consumed+p.clock.Since(p.runStart), p.duration)
}

func (p *Player) progressLocked() float64 {
	if p.duration <= 0 {
		return 0
	}
	return min(100, float64(p.consumedLocked())/float64(p.duration)*100)
}

func (p *Player) mediaFor(cmd MediaCommand) MediaCommand {
	if seg, ok := p.seq.Current(); ok && seg.Kind().IsVideo() {
		return cmd
	}
	return MediaNone
}

func (p *Player) eventLocked(t EventType, media MediaCommand) Event {
	p.seqNo++
	ev := Event{
		Seq:      p.seqNo,
		Type:     t,
		Position: p.seq.Position(),
		Progress: p.progressLocked(),
		Duration: p.duration,
		Paused:   p.paused,
		Media:    media,
	}
	if seg, ok := p.seq.Current(); ok {
		col, _ := p.seq.Collection()
		ev.Segment = seg
		ev.Owner = col.User
	}
	return ev
}

func (p *Player) emit(evs []Event) {
	if p.listener == nil {
		return
	}
	for _, ev := range evs {
		p.listener(ev)
	}
}
