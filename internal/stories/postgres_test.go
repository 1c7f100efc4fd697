package stories_test

import (
	"context"
	"testing"

	"story-playback/internal/db"
	"story-playback/internal/models"
	"story-playback/internal/stories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgres(t *testing.T) (*stories.Postgres, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return stories.NewPostgres(&db.DB{DB: sqlDB}), mock
}

func TestPostgresPublishRunsInTransaction(t *testing.T) {
	repo, mock := newPostgres(t)
	owner := models.StoryUser{ID: "u1", Username: "me"}
	seg := models.ImageSegment{SegmentBase: models.SegmentBase{ID: "s1", Timestamp: epoch}, MediaURL: "https://m/1.jpg"}
	payload, err := models.EncodeSegment(seg)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO story_users (.+) ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("u1", "me", "", true, epoch).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO story_segments`).
		WithArgs("s1", "u1", "image", string(payload), epoch).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Publish(context.Background(), owner, seg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListGroupsSegmentsByUser(t *testing.T) {
	repo, mock := newPostgres(t)

	img, _ := models.EncodeSegment(models.ImageSegment{SegmentBase: models.SegmentBase{ID: "s1", Timestamp: epoch}, MediaURL: "https://m/1.jpg"})
	ad, _ := models.EncodeSegment(models.AdImageSegment{
		SegmentBase: models.SegmentBase{ID: "ad", Timestamp: epoch},
		AdCreative:  models.AdCreative{Advertiser: models.StoryUser{ID: "brand", Username: "Brand"}},
	})
	other, _ := models.EncodeSegment(models.VideoSegment{SegmentBase: models.SegmentBase{ID: "v1", Timestamp: epoch}, MediaURL: "https://m/1.mp4"})

	mock.ExpectQuery(`SELECT u.id, u.username, u.avatar_url, u.has_new_story, s.payload FROM story_users u JOIN story_segments s ON s.user_id = u.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "avatar_url", "has_new_story", "payload"}).
			AddRow("u1", "one", "", true, img).
			AddRow("u1", "one", "", true, ad).
			AddRow("u2", "two", "", false, other))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u1", list[0].User.ID)
	require.Len(t, list[0].Segments, 2)
	assert.Equal(t, models.KindAdImage, list[0].Segments[1].Kind())
	assert.False(t, list[1].HasNewStory)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarkSeenUnknownUser(t *testing.T) {
	repo, mock := newPostgres(t)

	mock.ExpectExec(`UPDATE story_users SET has_new_story = \$1 WHERE id = \$2`).
		WithArgs(false, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkSeen(context.Background(), "ghost"), stories.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
