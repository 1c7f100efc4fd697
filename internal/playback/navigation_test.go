package playback_test

import (
	"testing"

	"story-playback/internal/models"
	"story-playback/internal/playback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneFor(t *testing.T) {
	tests := []struct {
		name  string
		x     float64
		width float64
		want  playback.Zone
	}{
		{"left edge", 0, 300, playback.ZoneLeft},
		{"left third", 99, 300, playback.ZoneLeft},
		{"center start", 100, 300, playback.ZoneCenter},
		{"center", 150, 300, playback.ZoneCenter},
		{"right third", 200, 300, playback.ZoneRight},
		{"right edge", 300, 300, playback.ZoneRight},
		{"no width", 10, 0, playback.ZoneCenter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, playback.ZoneFor(tt.x, tt.width))
		})
	}
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, playback.ActionRetreat, playback.ActionFor(10, 300))
	assert.Equal(t, playback.ActionTogglePause, playback.ActionFor(150, 300))
	assert.Equal(t, playback.ActionAdvance, playback.ActionFor(290, 300))
}

func TestPlayerTapDispatches(t *testing.T) {
	p, _, rec := newPlayer([]models.UserStory{collection("A", image("A0", 0), image("A1", 0))})
	p.Start()
	rec.expect(t, playback.EventSegmentStarted, "A0")

	action, err := p.Tap(290, 300)
	require.NoError(t, err)
	assert.Equal(t, playback.ActionAdvance, action)
	rec.expect(t, playback.EventSegmentStarted, "A1")

	action, err = p.Tap(150, 300)
	require.NoError(t, err)
	assert.Equal(t, playback.ActionTogglePause, action)
	rec.expect(t, playback.EventPaused, "A1")

	action, err = p.Tap(5, 300)
	require.NoError(t, err)
	assert.Equal(t, playback.ActionRetreat, action)
	ev := rec.expect(t, playback.EventSegmentStarted, "A0")
	assert.True(t, ev.Paused)

	p.Close()
	rec.expect(t, playback.EventClosed, "")

	_, err = p.Tap(290, 300)
	assert.ErrorIs(t, err, playback.ErrClosed)
}
