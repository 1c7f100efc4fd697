package models

import (
	"encoding/json"
	"sort"
	"time"
)

type StoryUser struct {
	ID        string `json:"id" db:"id"`
	Username  string `json:"username" db:"username"`
	AvatarURL string `json:"avatar_url" db:"avatar_url"`
}

// UserStory is one user's story collection, shown consecutively in the viewer.
type UserStory struct {
	User          StoryUser
	Segments      []Segment
	HasNewStory   bool
	LastUpdatedAt time.Time
}

// NewUserStory orders segments by creation time and derives LastUpdatedAt.
func NewUserStory(user StoryUser, segments []Segment, hasNew bool) UserStory {
	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt().Before(sorted[j].CreatedAt())
	})

	var last time.Time
	if len(sorted) > 0 {
		last = sorted[len(sorted)-1].CreatedAt()
	}

	return UserStory{
		User:          user,
		Segments:      sorted,
		HasNewStory:   hasNew,
		LastUpdatedAt: last,
	}
}

type userStoryWire struct {
	User          StoryUser         `json:"user"`
	Segments      []json.RawMessage `json:"segments"`
	HasNewStory   bool              `json:"has_new_story"`
	LastUpdatedAt time.Time         `json:"last_updated_at"`
}

func (s UserStory) MarshalJSON() ([]byte, error) {
	w := userStoryWire{
		User:          s.User,
		Segments:      make([]json.RawMessage, 0, len(s.Segments)),
		HasNewStory:   s.HasNewStory,
		LastUpdatedAt: s.LastUpdatedAt,
	}
	for _, seg := range s.Segments {
		data, err := EncodeSegment(seg)
		if err != nil {
			return nil, err
		}
		w.Segments = append(w.Segments, data)
	}
	return json.Marshal(w)
}

func (s *UserStory) UnmarshalJSON(data []byte) error {
	var w userStoryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	segments := make([]Segment, 0, len(w.Segments))
	for _, raw := range w.Segments {
		seg, err := DecodeSegment(raw)
		if err != nil {
			return err
		}
		segments = append(segments, seg)
	}
	*s = UserStory{
		User:          w.User,
		Segments:      segments,
		HasNewStory:   w.HasNewStory,
		LastUpdatedAt: w.LastUpdatedAt,
	}
	return nil
}

// ArchivedStory is a segment preserved past its normal expiry.
type ArchivedStory struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Kind      SegmentKind `json:"type"`
	MediaURL  string      `json:"media_url"`
	Timestamp time.Time   `json:"timestamp"`
	Duration  float64     `json:"duration,omitempty"`
}

// Segment turns the archived snapshot back into playable content.
func (a ArchivedStory) Segment() Segment {
	base := SegmentBase{
		ID:        a.ID,
		Timestamp: a.Timestamp,
		Duration:  time.Duration(a.Duration * float64(time.Second)),
	}
	if a.Kind == KindVideo {
		return VideoSegment{SegmentBase: base, MediaURL: a.MediaURL}
	}
	return ImageSegment{SegmentBase: base, MediaURL: a.MediaURL}
}

type archiveMatcher struct{ userID string }

func (m archiveMatcher) snapshot(b SegmentBase, kind SegmentKind, mediaURL string) *ArchivedStory {
	return &ArchivedStory{
		ID:        b.ID,
		UserID:    m.userID,
		Kind:      kind,
		MediaURL:  mediaURL,
		Timestamp: b.Timestamp,
		Duration:  b.Duration.Seconds(),
	}
}

func (m archiveMatcher) Image(s ImageSegment) *ArchivedStory {
	return m.snapshot(s.SegmentBase, KindImage, s.MediaURL)
}

func (m archiveMatcher) Video(s VideoSegment) *ArchivedStory {
	return m.snapshot(s.SegmentBase, KindVideo, s.MediaURL)
}

func (archiveMatcher) AdImage(AdImageSegment) *ArchivedStory       { return nil }
func (archiveMatcher) AdVideo(AdVideoSegment) *ArchivedStory       { return nil }
func (archiveMatcher) AdCarousel(AdCarouselSegment) *ArchivedStory { return nil }

// ArchiveOf snapshots an organic segment. Sponsored segments are never archived.
func ArchiveOf(userID string, s Segment) (ArchivedStory, bool) {
	a := MatchSegment[*ArchivedStory](s, archiveMatcher{userID: userID})
	if a == nil {
		return ArchivedStory{}, false
	}
	return *a, true
}

type Highlight struct {
	ID             string          `json:"id" db:"id"`
	UserID         string          `json:"user_id" db:"user_id"`
	Title          string          `json:"title" db:"title"`
	SegmentIDs     []string        `json:"segment_ids" db:"segment_ids"`
	CoverSegmentID string          `json:"cover_segment_id,omitempty" db:"cover_segment_id"`
	Segments       []ArchivedStory `json:"segments,omitempty" db:"-"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

func (h Highlight) Contains(segmentID string) bool {
	for _, id := range h.SegmentIDs {
		if id == segmentID {
			return true
		}
	}
	return false
}

type ContentType string

const (
	ContentPost    ContentType = "post"
	ContentReel    ContentType = "reel"
	ContentStory   ContentType = "story"
	ContentArticle ContentType = "article"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentPost, ContentReel, ContentStory, ContentArticle:
		return true
	}
	return false
}

type Comment struct {
	ID          string      `json:"id" db:"id"`
	ContentID   string      `json:"content_id" db:"content_id"`
	ContentType ContentType `json:"content_type" db:"content_type"`
	User        StoryUser   `json:"user"`
	Text        string      `json:"text" db:"text"`
	Timestamp   time.Time   `json:"timestamp" db:"created_at"`
}

type PublishSegmentRequest struct {
	Type     SegmentKind `json:"type" binding:"required,oneof=image video"`
	MediaURL string      `json:"media_url" binding:"required,url"`
	Duration float64     `json:"duration" binding:"gte=0,lte=60"`
	Link     string      `json:"link" binding:"omitempty,url"`
	Username string      `json:"username" binding:"required"`
	Avatar   string      `json:"avatar_url" binding:"omitempty,url"`
}

type OpenViewerRequest struct {
	StartUserID string `json:"start_user_id" binding:"required"`
}

type TapRequest struct {
	X     float64 `json:"x" binding:"gte=0"`
	Width float64 `json:"width" binding:"required,gt=0"`
}

type MediaEventRequest struct {
	SegmentID  string  `json:"segment_id" binding:"required"`
	Event      string  `json:"event" binding:"required,oneof=loaded ended error"`
	DurationMS float64 `json:"duration_ms" binding:"gte=0"`
	Error      string  `json:"error"`
}

type ArchiveStoryRequest struct {
	ID        string      `json:"id" binding:"required"`
	Type      SegmentKind `json:"type" binding:"required,oneof=image video"`
	MediaURL  string      `json:"media_url" binding:"required"`
	Timestamp time.Time   `json:"timestamp" binding:"required"`
	Duration  float64     `json:"duration" binding:"gte=0"`
}

func (r ArchiveStoryRequest) Story(userID string) ArchivedStory {
	return ArchivedStory{
		ID:        r.ID,
		UserID:    userID,
		Kind:      r.Type,
		MediaURL:  r.MediaURL,
		Timestamp: r.Timestamp,
		Duration:  r.Duration,
	}
}

type CreateHighlightRequest struct {
	Title          string `json:"title" binding:"required"`
	InitialStoryID string `json:"initial_story_id"`
}

type AddHighlightStoryRequest struct {
	StoryID string `json:"story_id" binding:"required"`
}

type RenameHighlightRequest struct {
	Title string `json:"title" binding:"required"`
}

type AddCommentRequest struct {
	Text      string `json:"text" binding:"required"`
	Username  string `json:"username" binding:"required"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
}

type PresignedUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	FileName    string `json:"file_name" binding:"required"`
}

type PresignedUploadResponse struct {
	UploadURL string `json:"upload_url"`
	MediaKey  string `json:"media_key"`
}
