package playback_test

import (
	"fmt"
	"testing"
	"time"

	"story-playback/internal/models"
	"story-playback/internal/playback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func image(id string, d time.Duration) models.Segment {
	return models.ImageSegment{SegmentBase: models.SegmentBase{ID: id, Timestamp: epoch, Duration: d}, MediaURL: "https://media/" + id + ".jpg"}
}

func video(id string) models.Segment {
	return models.VideoSegment{SegmentBase: models.SegmentBase{ID: id, Timestamp: epoch}, MediaURL: "https://media/" + id + ".mp4"}
}

func adImage(id string, d time.Duration) models.Segment {
	return models.AdImageSegment{
		SegmentBase: models.SegmentBase{ID: id, Timestamp: epoch, Duration: d},
		AdCreative: models.AdCreative{
			Advertiser: models.StoryUser{ID: "brand_a", Username: "CoolBrandA"},
			Headline:   "Get 20% Off Today!",
			CTAText:    "Shop Now",
			CTALink:    "https://example-advertiser.com/sale",
		},
	}
}

func adVideo(id string) models.Segment {
	return models.AdVideoSegment{
		SegmentBase: models.SegmentBase{ID: id, Timestamp: epoch},
		AdCreative: models.AdCreative{
			Advertiser: models.StoryUser{ID: "brand_b", Username: "TechGadgets"},
			CTAText:    "Learn More",
			CTALink:    "https://example-tech.com/new-gadget",
		},
	}
}

func collection(user string, segs ...models.Segment) models.UserStory {
	return models.UserStory{User: models.StoryUser{ID: user, Username: user}, Segments: segs}
}

func currentID(t *testing.T, s *playback.Sequencer) string {
	t.Helper()
	seg, ok := s.Current()
	require.True(t, ok, "sequencer closed")
	return seg.SegmentID()
}

func TestSequencerVisitsAcrossCollections(t *testing.T) {
	s := playback.NewSequencer([]models.UserStory{
		collection("A", image("A0", 0), image("A1", 0)),
		collection("B", image("B0", 0)),
	}, 0)

	assert.Equal(t, "A0", currentID(t, s))
	require.True(t, s.Advance())
	assert.Equal(t, "A1", currentID(t, s))
	require.True(t, s.Advance())
	assert.Equal(t, "B0", currentID(t, s))
	assert.Equal(t, playback.Position{Collection: 1, Segment: 0}, s.Position())

	assert.False(t, s.Advance())
	assert.True(t, s.Closed())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSequencerClosesAfterExactlyTotalSegments(t *testing.T) {
	shapes := [][]int{{1}, {3}, {2, 1}, {1, 1, 1, 1}, {4, 0, 2}, {0, 5}, {2, 0, 0, 3, 1}}

	for _, shape := range shapes {
		t.Run(fmt.Sprint(shape), func(t *testing.T) {
			var cols []models.UserStory
			total := 0
			for c, n := range shape {
				var segs []models.Segment
				for i := 0; i < n; i++ {
					segs = append(segs, image(fmt.Sprintf("c%d-s%d", c, i), 0))
				}
				cols = append(cols, collection(fmt.Sprintf("u%d", c), segs...))
				total += n
			}

			s := playback.NewSequencer(cols, 0)
			calls := 0
			for !s.Closed() {
				s.Advance()
				calls++
				require.LessOrEqual(t, calls, total)
			}
			assert.Equal(t, total, calls)
		})
	}
}

func TestSequencerRetreatAtStartIsNoOp(t *testing.T) {
	s := playback.NewSequencer([]models.UserStory{
		collection("A", image("A0", 0), image("A1", 0)),
	}, 0)

	before := s.Position()
	assert.False(t, s.Retreat())
	assert.Equal(t, before, s.Position())
	assert.False(t, s.Closed())
	assert.Equal(t, "A0", currentID(t, s))
}

func TestSequencerRetreatJumpsToPreviousCollectionsLastSegment(t *testing.T) {
	s := playback.NewSequencer([]models.UserStory{
		collection("A", image("A0", 0), image("A1", 0), image("A2", 0)),
		collection("B", image("B0", 0), image("B1", 0)),
	}, 1)

	assert.Equal(t, "B0", currentID(t, s))
	require.True(t, s.Retreat())
	assert.Equal(t, "A2", currentID(t, s))
	require.True(t, s.Retreat())
	assert.Equal(t, "A1", currentID(t, s))
}

func TestSequencerEmptyInputClosesImmediately(t *testing.T) {
	assert.True(t, playback.NewSequencer(nil, 0).Closed())
	assert.True(t, playback.NewSequencer([]models.UserStory{collection("A", image("A0", 0))}, 3).Closed())
	assert.True(t, playback.NewSequencer([]models.UserStory{collection("A"), collection("B")}, 0).Closed())
}

func TestSequencerSkipsEmptyCollections(t *testing.T) {
	s := playback.NewSequencer([]models.UserStory{
		collection("A", image("A0", 0)),
		collection("B"),
		collection("C", image("C0", 0)),
	}, 1)
	assert.Equal(t, "C0", currentID(t, s))

	require.True(t, s.Retreat())
	assert.Equal(t, "A0", currentID(t, s))
	require.True(t, s.Advance())
	assert.Equal(t, "C0", currentID(t, s))
}

func TestSequencerStaysClosed(t *testing.T) {
	s := playback.NewSequencer([]models.UserStory{collection("A", image("A0", 0))}, 0)
	s.Close()
	assert.False(t, s.Advance())
	assert.False(t, s.Retreat())
	assert.True(t, s.Closed())
}
