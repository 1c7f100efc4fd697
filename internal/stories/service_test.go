package stories_test

import (
	"context"
	"testing"
	"time"

	"story-playback/internal/apperror"
	"story-playback/internal/archive"
	"story-playback/internal/kv"
	"story-playback/internal/mockdata"
	"story-playback/internal/models"
	"story-playback/internal/stories"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *stories.Service
	repo    *stories.Memory
	archive *archive.Store
	clock   *clockwork.FakeClock
}

func newFixture(t *testing.T, seed bool) fixture {
	t.Helper()
	repo := stories.NewMemory()
	store := archive.NewStore(kv.NewMemory(), zap.NewNop())
	fc := clockwork.NewFakeClockAt(epoch)
	if seed {
		require.NoError(t, mockdata.Seed(context.Background(), epoch, mockdata.Target{Stories: repo}))
	}
	return fixture{
		svc:     stories.NewService(repo, store, fc, zap.NewNop()),
		repo:    repo,
		archive: store,
		clock:   fc,
	}
}

func owners(list []models.UserStory) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.User.ID)
	}
	return out
}

func TestFeedOrdersUnseenFirstThenRecent(t *testing.T) {
	f := newFixture(t, true)

	feed, err := f.svc.Feed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alex_doe", "coder_cat", "sarah_j", "mike_ross"}, owners(feed))

	alex := feed[0]
	require.Len(t, alex.Segments, 3)
	assert.Equal(t, "s1ad1", alex.Segments[1].SegmentID())
	assert.Equal(t, epoch.Add(-5*time.Minute), alex.LastUpdatedAt)
}

func TestOpenMarksSeen(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.svc.Open(ctx, "alex_doe"))
	feed, err := f.svc.Feed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"coder_cat", "sarah_j", "alex_doe", "mike_ross"}, owners(feed))

	assert.True(t, apperror.IsNotFound(f.svc.Open(ctx, "nobody")))
}

func TestPublishAppendsAndArchives(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	me := models.StoryUser{ID: "u1", Username: "me"}

	seg, err := f.svc.Publish(ctx, me, stories.PublishInput{Kind: models.KindImage, MediaURL: "https://media/1.jpg", Duration: 6 * time.Second})
	require.NoError(t, err)
	assert.NotEmpty(t, seg.SegmentID())
	assert.Equal(t, epoch, seg.CreatedAt())

	f.clock.Advance(time.Minute)
	second, err := f.svc.Publish(ctx, me, stories.PublishInput{Kind: models.KindVideo, MediaURL: "https://media/2.mp4"})
	require.NoError(t, err)

	col, err := f.repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, col.HasNewStory)
	require.Len(t, col.Segments, 2)
	assert.Equal(t, second.SegmentID(), col.Segments[1].SegmentID())

	archived, err := f.archive.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, archived, 2)
	assert.Equal(t, seg.SegmentID(), archived[0].ID)
	assert.Equal(t, 6.0, archived[0].Duration)
	assert.Equal(t, models.KindVideo, archived[1].Kind)
}

func TestPublishValidation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	me := models.StoryUser{ID: "u1"}

	tests := []struct {
		name  string
		owner models.StoryUser
		in    stories.PublishInput
	}{
		{"ad type", me, stories.PublishInput{Kind: models.KindAdImage, MediaURL: "https://m"}},
		{"no media", me, stories.PublishInput{Kind: models.KindImage}},
		{"too long", me, stories.PublishInput{Kind: models.KindImage, MediaURL: "https://m", Duration: 61 * time.Second}},
		{"no owner", models.StoryUser{}, stories.PublishInput{Kind: models.KindImage, MediaURL: "https://m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Publish(ctx, tt.owner, tt.in)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
}

func TestExpireBeforeArchivesOrganicAndDropsAds(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	res, err := f.svc.ExpireBefore(ctx, epoch.Add(24*time.Hour-3*time.Hour))
	require.NoError(t, err)
	// s3a (5h old), s3ad1 (4h old) expire; mike_ross's collection disappears
	assert.Equal(t, stories.ExpireResult{Expired: 2, Archived: 1}, res)

	feed, err := f.svc.Feed(ctx)
	require.NoError(t, err)
	assert.NotContains(t, owners(feed), "mike_ross")

	archived, err := f.archive.List(ctx, "mike_ross")
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "s3a", archived[0].ID)

	res, err = f.svc.ExpireBefore(ctx, epoch.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 7, res.Expired)
	assert.Equal(t, 6, res.Archived)

	feed, err = f.svc.Feed(ctx)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestSortFeedIsStable(t *testing.T) {
	a := models.UserStory{User: models.StoryUser{ID: "a"}, LastUpdatedAt: epoch}
	b := models.UserStory{User: models.StoryUser{ID: "b"}, LastUpdatedAt: epoch}
	c := models.UserStory{User: models.StoryUser{ID: "c"}, LastUpdatedAt: epoch.Add(-time.Hour), HasNewStory: true}

	list := []models.UserStory{a, b, c}
	stories.SortFeed(list)
	assert.Equal(t, []string{"c", "a", "b"}, owners(list))
}
