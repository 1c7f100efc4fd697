// Package mockdata holds the demo feed, archive, highlights and comments used
// by the seed script and by the API when it runs without a database.
package mockdata

import (
	"context"
	"fmt"
	"time"

	"story-playback/internal/archive"
	"story-playback/internal/comments"
	"story-playback/internal/highlights"
	"story-playback/internal/models"
	"story-playback/internal/stories"
)

const CurrentUserID = "current_user"

var CurrentUser = models.StoryUser{ID: CurrentUserID, Username: "Your Story", AvatarURL: "https://picsum.photos/seed/myavatar/50"}

func user(name string, pic int) models.StoryUser {
	return models.StoryUser{ID: name, Username: name, AvatarURL: fmt.Sprintf("https://picsum.photos/id/%d/50", pic)}
}

func image(id string, at time.Time, d time.Duration, seed string) models.ImageSegment {
	return models.ImageSegment{
		SegmentBase: models.SegmentBase{ID: id, Timestamp: at, Duration: d},
		MediaURL:    "https://picsum.photos/seed/" + seed + "/1080/1920",
	}
}

// Feed is the demo carousel. Sponsored segments sit at fixed positions
// inside alex_doe's and mike_ross's collections.
func Feed(now time.Time) []models.UserStory {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }

	return []models.UserStory{
		models.NewUserStory(user("alex_doe", 101), []models.Segment{
			image("s1a", ago(10*time.Minute), 5*time.Second, "alex_story1"),
			models.AdImageSegment{
				SegmentBase: models.SegmentBase{ID: "s1ad1", Timestamp: ago(8 * time.Minute), Duration: 10 * time.Second},
				AdCreative: models.AdCreative{
					Advertiser: models.StoryUser{ID: "brand_a", Username: "CoolBrandA", AvatarURL: "https://picsum.photos/seed/brand_a/40"},
					Headline:   "Get 20% Off Today!",
					MediaURL:   "https://picsum.photos/seed/ad_story_1/1080/1920",
					CTAText:    "Shop Now",
					CTALink:    "https://example-advertiser.com/sale",
				},
			},
			image("s1b", ago(5*time.Minute), 5*time.Second, "alex_story2"),
		}, true),
		models.NewUserStory(user("sarah_j", 102), []models.Segment{
			image("s2a", ago(2*time.Hour), 7*time.Second, "sarah_story1"),
		}, true),
		models.NewUserStory(user("mike_ross", 103), []models.Segment{
			image("s3a", ago(5*time.Hour), 5*time.Second, "mike_story1"),
			models.AdVideoSegment{
				SegmentBase: models.SegmentBase{ID: "s3ad1", Timestamp: ago(4 * time.Hour)},
				AdCreative: models.AdCreative{
					Advertiser: models.StoryUser{ID: "brand_b", Username: "TechGadgets", AvatarURL: "https://picsum.photos/seed/brand_b/40"},
					Headline:   "The Future is Here!",
					MediaURL:   "https://example.com/ad_video_story.mp4",
					CTAText:    "Learn More",
					CTALink:    "https://example-tech.com/new-gadget",
				},
			},
		}, false),
		models.NewUserStory(user("coder_cat", 104), []models.Segment{
			image("s4a", ago(60*time.Minute), 5*time.Second, "coder_story1"),
			image("s4b", ago(59*time.Minute), 5*time.Second, "coder_story2"),
			image("s4c", ago(58*time.Minute), 5*time.Second, "coder_story3"),
		}, true),
	}
}

func Archive(now time.Time) []models.ArchivedStory {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	day := 24 * time.Hour

	return []models.ArchivedStory{
		{ID: "archived_story_1", UserID: CurrentUserID, Kind: models.KindImage, MediaURL: "https://picsum.photos/seed/archive1/1080/1920", Timestamp: ago(2 * day), Duration: 5},
		{ID: "archived_story_2", UserID: CurrentUserID, Kind: models.KindImage, MediaURL: "https://picsum.photos/seed/archive2/1080/1920", Timestamp: ago(day), Duration: 7},
		{ID: "archived_story_3", UserID: CurrentUserID, Kind: models.KindImage, MediaURL: "https://picsum.photos/seed/archive3/1080/1920", Timestamp: ago(5 * time.Hour), Duration: 5},
		{ID: "archived_story_4", UserID: CurrentUserID, Kind: models.KindVideo, MediaURL: "https://example.com/mock_video.mp4", Timestamp: ago(time.Hour), Duration: 10},
	}
}

func Highlights(now time.Time) []models.Highlight {
	return []models.Highlight{
		{ID: "highlight1", UserID: CurrentUserID, Title: "Travels", SegmentIDs: []string{"archived_story_1", "archived_story_3"}, CoverSegmentID: "archived_story_1", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "highlight2", UserID: CurrentUserID, Title: "Food", SegmentIDs: []string{"archived_story_2"}, CoverSegmentID: "archived_story_2", CreatedAt: now.Add(-time.Hour)},
	}
}

func Comments(now time.Time) []models.Comment {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	commenter := func(name string, pic int) models.StoryUser {
		return models.StoryUser{ID: name, Username: name, AvatarURL: fmt.Sprintf("https://picsum.photos/id/%d/40", pic)}
	}

	return []models.Comment{
		{ID: "c1-1", ContentID: "post-1", ContentType: models.ContentPost, User: commenter("sarah_j", 102), Text: "Great post! 👍", Timestamp: ago(10 * time.Minute)},
		{ID: "c1-2", ContentID: "post-1", ContentType: models.ContentPost, User: commenter("mike_ross", 103), Text: "Love this!", Timestamp: ago(5 * time.Minute)},
		{ID: "c2-1", ContentID: "reel-1", ContentType: models.ContentReel, User: commenter("coder_cat", 104), Text: "😂😂😂", Timestamp: ago(15 * time.Minute)},
		{ID: "c3-1", ContentID: "story1", ContentType: models.ContentStory, User: commenter("design_guru", 105), Text: "Can't wait for the next chapter!", Timestamp: ago(2 * time.Hour)},
		{ID: "c4-1", ContentID: "story3", ContentType: models.ContentArticle, User: commenter("travel_bug", 106), Text: "Interesting perspective.", Timestamp: ago(3 * time.Hour)},
		{ID: "c4-2", ContentID: "story3", ContentType: models.ContentArticle, User: commenter("food_lover", 107), Text: "Well written article!", Timestamp: ago(time.Hour)},
	}
}

// Target lists the stores Seed writes into. Nil members are skipped.
type Target struct {
	Stories    stories.Repository
	Archive    *archive.Store
	Highlights highlights.Repository
	Comments   comments.Store
}

func Seed(ctx context.Context, now time.Time, t Target) error {
	if t.Stories != nil {
		for _, col := range Feed(now) {
			for _, seg := range col.Segments {
				if err := t.Stories.Publish(ctx, col.User, seg); err != nil {
					return fmt.Errorf("seed story %s: %w", seg.SegmentID(), err)
				}
			}
			if !col.HasNewStory {
				if err := t.Stories.MarkSeen(ctx, col.User.ID); err != nil {
					return fmt.Errorf("seed seen flag %s: %w", col.User.ID, err)
				}
			}
		}
	}
	if t.Archive != nil {
		for _, st := range Archive(now) {
			if _, err := t.Archive.Archive(ctx, st.UserID, st); err != nil {
				return fmt.Errorf("seed archive %s: %w", st.ID, err)
			}
		}
	}
	if t.Highlights != nil {
		for _, h := range Highlights(now) {
			if err := t.Highlights.Save(ctx, h); err != nil {
				return fmt.Errorf("seed highlight %s: %w", h.ID, err)
			}
		}
	}
	if t.Comments != nil {
		for _, c := range Comments(now) {
			if err := t.Comments.Add(ctx, c); err != nil {
				return fmt.Errorf("seed comment %s: %w", c.ID, err)
			}
		}
	}
	return nil
}
