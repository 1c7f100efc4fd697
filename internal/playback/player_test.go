package playback_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"story-playback/internal/models"
	"story-playback/internal/playback"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	events chan playback.Event
}

func newRecorder() *recorder {
	return &recorder{events: make(chan playback.Event, 64)}
}

func (r *recorder) listen(ev playback.Event) {
	r.events <- ev
}

func (r *recorder) next(t *testing.T) playback.Event {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for player event")
		return playback.Event{}
	}
}

func (r *recorder) expect(t *testing.T, typ playback.EventType, segmentID string) playback.Event {
	t.Helper()
	ev := r.next(t)
	require.Equal(t, typ, ev.Type)
	if segmentID != "" {
		require.NotNil(t, ev.Segment)
		require.Equal(t, segmentID, ev.Segment.SegmentID())
	}
	return ev
}

func (r *recorder) empty(t *testing.T) {
	t.Helper()
	select {
	case ev := <-r.events:
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}
}

func newPlayer(cols []models.UserStory) (*playback.Player, *clockwork.FakeClock, *recorder) {
	fc := clockwork.NewFakeClock()
	rec := newRecorder()
	p := playback.NewPlayer(playback.NewSequencer(cols, 0),
		playback.WithClock(fc),
		playback.WithListener(rec.listen))
	return p, fc, rec
}

func TestPlayerAutoAdvancesToClose(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{
		collection("A", image("A0", 0), image("A1", 2*time.Second)),
		collection("B", image("B0", 0)),
	})

	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "A0")

	fc.Advance(5 * time.Second)
	ev := rec.expect(t, playback.EventSegmentStarted, "A1")
	assert.Equal(t, 2*time.Second, ev.Duration)

	fc.Advance(2 * time.Second)
	ev = rec.expect(t, playback.EventSegmentStarted, "B0")
	assert.Equal(t, "B", ev.Owner.ID)

	fc.Advance(5 * time.Second)
	rec.expect(t, playback.EventClosed, "")

	select {
	case <-p.Done():
	default:
		t.Fatal("done channel not closed")
	}
	assert.ErrorIs(t, p.Advance(), playback.ErrClosed)
}

func TestPlayerManualAdvanceClosesExactlyOnce(t *testing.T) {
	p, _, rec := newPlayer([]models.UserStory{
		collection("A", image("A0", 0), image("A1", 0)),
		collection("B", image("B0", 0)),
	})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "A0")

	require.NoError(t, p.Advance())
	rec.expect(t, playback.EventSegmentStarted, "A1")
	require.NoError(t, p.Advance())
	rec.expect(t, playback.EventSegmentStarted, "B0")
	require.NoError(t, p.Advance())
	rec.expect(t, playback.EventClosed, "")

	assert.ErrorIs(t, p.Advance(), playback.ErrClosed)
	p.Close()
	rec.empty(t)
}

func TestPlayerEmptySequenceClosesOnStart(t *testing.T) {
	p, _, rec := newPlayer(nil)
	p.Start()
	rec.expect(t, playback.EventClosed, "")
	assert.True(t, p.Snapshot().Closed)
}

func TestPlayerPauseResumeSchedulesRemainder(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{
		collection("A", image("A0", 5*time.Second), image("A1", 0)),
	})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "A0")

	fc.Advance(2 * time.Second)
	require.NoError(t, p.Pause())
	ev := rec.expect(t, playback.EventPaused, "A0")
	assert.InDelta(t, 40, ev.Progress, 1e-9)

	fc.Advance(10 * time.Second)
	assert.InDelta(t, 40, p.Progress(), 1e-9)
	assert.Equal(t, "A0", p.Snapshot().Segment.SegmentID())
	rec.empty(t)

	require.NoError(t, p.Resume())
	rec.expect(t, playback.EventResumed, "A0")
	assert.Equal(t, 3*time.Second, p.Remaining())

	fc.Advance(3*time.Second - time.Millisecond)
	assert.Equal(t, "A0", p.Snapshot().Segment.SegmentID())
	rec.empty(t)

	fc.Advance(time.Millisecond)
	rec.expect(t, playback.EventSegmentStarted, "A1")
}

func TestPlayerTogglePause(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{collection("A", image("A0", 0))})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "A0")

	fc.Advance(time.Second)
	require.NoError(t, p.TogglePause())
	rec.expect(t, playback.EventPaused, "A0")
	assert.True(t, p.Snapshot().Paused)

	require.NoError(t, p.TogglePause())
	rec.expect(t, playback.EventResumed, "A0")
	assert.Equal(t, 4*time.Second, p.Remaining())
}

func TestPlayerAdImageIsCapped(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{
		collection("A", adImage("ad", 30*time.Second), image("A1", 0)),
	})
	p.Start()
	ev := rec.expect(t, playback.EventSegmentStarted, "ad")
	assert.Equal(t, 10*time.Second, ev.Duration)

	fc.Advance(10*time.Second - time.Millisecond)
	rec.empty(t)
	fc.Advance(time.Millisecond)
	rec.expect(t, playback.EventSegmentStarted, "A1")
}

func TestPlayerNavigationCancelsPendingCompletion(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{
		collection("A", image("A0", 0), image("A1", 0)),
		collection("B", image("B0", 0)),
	})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "A0")

	fc.Advance(4 * time.Second)
	require.NoError(t, p.Advance())
	rec.expect(t, playback.EventSegmentStarted, "A1")

	fc.Advance(time.Second)
	rec.empty(t)
	assert.Equal(t, "A1", p.Snapshot().Segment.SegmentID())

	fc.Advance(4 * time.Second)
	rec.expect(t, playback.EventSegmentStarted, "B0")
}

func TestPlayerRetreatAtStartKeepsTimer(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{collection("A", image("A0", 0), image("A1", 0))})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "A0")

	fc.Advance(2 * time.Second)
	before := p.Snapshot()
	require.NoError(t, p.Retreat())
	rec.empty(t)
	assert.Equal(t, before, p.Snapshot())

	fc.Advance(3 * time.Second)
	rec.expect(t, playback.EventSegmentStarted, "A1")
}

func TestPlayerNavigationWhilePausedStaysPaused(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{collection("A", image("A0", 0), image("A1", 0))})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "A0")

	require.NoError(t, p.Pause())
	rec.expect(t, playback.EventPaused, "A0")
	require.NoError(t, p.Advance())
	ev := rec.expect(t, playback.EventSegmentStarted, "A1")
	assert.True(t, ev.Paused)
	assert.Zero(t, ev.Progress)

	fc.Advance(time.Minute)
	rec.empty(t)

	require.NoError(t, p.Resume())
	rec.expect(t, playback.EventResumed, "A1")
	fc.Advance(5 * time.Second)
	rec.expect(t, playback.EventClosed, "")
}

func TestPlayerVideoRetimedByMedia(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{collection("A", video("v"), image("A1", 0))})
	p.Start()
	ev := rec.expect(t, playback.EventSegmentStarted, "v")
	assert.Equal(t, playback.MediaRestart, ev.Media)
	assert.Equal(t, 5*time.Second, ev.Duration)

	fc.Advance(time.Second)
	require.NoError(t, p.MediaLoaded("v", 8*time.Second))
	ev = rec.expect(t, playback.EventRetimed, "v")
	assert.Equal(t, 8*time.Second, ev.Duration)
	assert.Equal(t, 7*time.Second, p.Remaining())

	fc.Advance(4 * time.Second)
	rec.empty(t)
	fc.Advance(3 * time.Second)
	rec.expect(t, playback.EventSegmentStarted, "A1")
}

func TestPlayerVideoEndedAdvances(t *testing.T) {
	p, _, rec := newPlayer([]models.UserStory{collection("A", video("v"), image("A1", 0))})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "v")

	assert.ErrorIs(t, p.MediaEnded("other"), playback.ErrSegmentMismatch)
	rec.empty(t)

	require.NoError(t, p.MediaEnded("v"))
	rec.expect(t, playback.EventSegmentStarted, "A1")

	assert.ErrorIs(t, p.MediaEnded("A1"), playback.ErrSegmentMismatch)
}

func TestPlayerVideoFailureFallsBack(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{collection("A", video("v"))})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "v")

	require.NoError(t, p.MediaFailed("v", errors.New("decode error")))
	fc.Advance(5 * time.Second)
	rec.expect(t, playback.EventClosed, "")
}

func TestPlayerAdVideoCapped(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{collection("A", adVideo("ad"))})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "ad")

	require.NoError(t, p.MediaLoaded("ad", 40*time.Second))
	ev := rec.expect(t, playback.EventRetimed, "ad")
	assert.Equal(t, 15*time.Second, ev.Duration)

	fc.Advance(15 * time.Second)
	rec.expect(t, playback.EventClosed, "")
}

func TestPlayerVideoPauseSendsMediaCommands(t *testing.T) {
	p, _, rec := newPlayer([]models.UserStory{collection("A", video("v"))})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "v")

	require.NoError(t, p.Pause())
	assert.Equal(t, playback.MediaPause, rec.expect(t, playback.EventPaused, "v").Media)
	require.NoError(t, p.Resume())
	assert.Equal(t, playback.MediaPlay, rec.expect(t, playback.EventResumed, "v").Media)
	p.Close()
	rec.expect(t, playback.EventClosed, "")
}

func TestPlayerWatchReportsProgress(t *testing.T) {
	p, fc, rec := newPlayer([]models.UserStory{collection("A", image("A0", 0))})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "A0")

	ctx, cancel := context.WithCancel(context.Background())
	progress := make(chan playback.Event, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Watch(ctx, func(ev playback.Event) { progress <- ev })
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, fc.BlockUntilContext(waitCtx, 2))

	fc.Advance(playback.ProgressInterval)
	select {
	case ev := <-progress:
		assert.Equal(t, playback.EventProgress, ev.Type)
		assert.InDelta(t, 1.0, ev.Progress, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("no progress reported")
	}

	cancel()
	wg.Wait()
	p.Close()
	rec.expect(t, playback.EventClosed, "")
}

func TestPlayerWatchStopsWhenClosed(t *testing.T) {
	p, _, rec := newPlayer([]models.UserStory{collection("A", image("A0", 0))})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "A0")

	done := make(chan struct{})
	go func() {
		p.Watch(context.Background(), func(playback.Event) {})
		close(done)
	}()

	p.Close()
	rec.expect(t, playback.EventClosed, "")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after close")
	}
}

func TestPlayerEventSequenceNumbersIncrease(t *testing.T) {
	p, _, rec := newPlayer([]models.UserStory{collection("A", image("A0", 0), image("A1", 0))})
	p.Start()
	first := rec.expect(t, playback.EventSegmentStarted, "A0")
	require.NoError(t, p.Advance())
	second := rec.expect(t, playback.EventSegmentStarted, "A1")
	assert.Greater(t, second.Seq, first.Seq)
	p.Close()
	rec.expect(t, playback.EventClosed, "")
}
