package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SegmentKind string

const (
	KindImage      SegmentKind = "image"
	KindVideo      SegmentKind = "video"
	KindAdImage    SegmentKind = "ad_image"
	KindAdVideo    SegmentKind = "ad_video"
	KindAdCarousel SegmentKind = "ad_carousel"
)

var (
	ErrUnknownSegmentKind = errors.New("unknown segment kind")
	ErrInvalidSegment     = errors.New("invalid segment")
)

func (k SegmentKind) IsAd() bool {
	return k == KindAdImage || k == KindAdVideo || k == KindAdCarousel
}

func (k SegmentKind) IsVideo() bool {
	return k == KindVideo || k == KindAdVideo
}

// Segment is one unit of story content. The set of implementations is closed:
// ImageSegment, VideoSegment, AdImageSegment, AdVideoSegment, AdCarouselSegment.
type Segment interface {
	SegmentID() string
	CreatedAt() time.Time
	Kind() SegmentKind
	// DeclaredDuration is zero when the kind's default applies.
	DeclaredDuration() time.Duration
	sealed()
}

type SegmentBase struct {
	ID        string
	Timestamp time.Time
	Duration  time.Duration
}

func (b SegmentBase) SegmentID() string               { return b.ID }
func (b SegmentBase) CreatedAt() time.Time            { return b.Timestamp }
func (b SegmentBase) DeclaredDuration() time.Duration { return b.Duration }

type ImageSegment struct {
	SegmentBase
	MediaURL string
	Link     string
}

type VideoSegment struct {
	SegmentBase
	MediaURL string
	Link     string
}

// AdCreative replaces the story owner's authorship on sponsored segments.
type AdCreative struct {
	Advertiser StoryUser
	Headline   string
	MediaURL   string
	CTAText    string
	CTALink    string
}

type CarouselItem struct {
	ID       string `json:"id"`
	MediaURL string `json:"media_url"`
	Link     string `json:"link,omitempty"`
}

type AdImageSegment struct {
	SegmentBase
	AdCreative
}

type AdVideoSegment struct {
	SegmentBase
	AdCreative
}

type AdCarouselSegment struct {
	SegmentBase
	AdCreative
	Items []CarouselItem
}

func (ImageSegment) Kind() SegmentKind      { return KindImage }
func (VideoSegment) Kind() SegmentKind      { return KindVideo }
func (AdImageSegment) Kind() SegmentKind    { return KindAdImage }
func (AdVideoSegment) Kind() SegmentKind    { return KindAdVideo }
func (AdCarouselSegment) Kind() SegmentKind { return KindAdCarousel }

func (ImageSegment) sealed()      {}
func (VideoSegment) sealed()      {}
func (AdImageSegment) sealed()    {}
func (AdVideoSegment) sealed()    {}
func (AdCarouselSegment) sealed() {}

// SegmentMatcher has one case per segment variant. Adding a variant adds a
// method here, so every matcher stops compiling until it handles it.
type SegmentMatcher[T any] interface {
	Image(ImageSegment) T
	Video(VideoSegment) T
	AdImage(AdImageSegment) T
	AdVideo(AdVideoSegment) T
	AdCarousel(AdCarouselSegment) T
}

func MatchSegment[T any](s Segment, m SegmentMatcher[T]) T {
	switch v := s.(type) {
	case ImageSegment:
		return m.Image(v)
	case *ImageSegment:
		return m.Image(*v)
	case VideoSegment:
		return m.Video(v)
	case *VideoSegment:
		return m.Video(*v)
	case AdImageSegment:
		return m.AdImage(v)
	case *AdImageSegment:
		return m.AdImage(*v)
	case AdVideoSegment:
		return m.AdVideo(v)
	case *AdVideoSegment:
		return m.AdVideo(*v)
	case AdCarouselSegment:
		return m.AdCarousel(v)
	case *AdCarouselSegment:
		return m.AdCarousel(*v)
	}
	panic(fmt.Sprintf("models: unhandled segment type %T", s))
}

type adMatcher struct{}

func (adMatcher) Image(ImageSegment) *AdCreative             { return nil }
func (adMatcher) Video(VideoSegment) *AdCreative             { return nil }
func (adMatcher) AdImage(s AdImageSegment) *AdCreative       { return &s.AdCreative }
func (adMatcher) AdVideo(s AdVideoSegment) *AdCreative       { return &s.AdCreative }
func (adMatcher) AdCarousel(s AdCarouselSegment) *AdCreative { return &s.AdCreative }

// AdOf returns the creative of a sponsored segment.
func AdOf(s Segment) (AdCreative, bool) {
	ad := MatchSegment[*AdCreative](s, adMatcher{})
	if ad == nil {
		return AdCreative{}, false
	}
	return *ad, true
}

type segmentWire struct {
	ID            string         `json:"id"`
	Type          SegmentKind    `json:"type"`
	Timestamp     time.Time      `json:"timestamp"`
	Duration      float64        `json:"duration,omitempty"`
	MediaURL      string         `json:"media_url"`
	Link          string         `json:"link,omitempty"`
	Advertiser    *StoryUser     `json:"advertiser,omitempty"`
	Headline      string         `json:"headline,omitempty"`
	CTAText       string         `json:"cta_text,omitempty"`
	CTALink       string         `json:"cta_link,omitempty"`
	CarouselItems []CarouselItem `json:"carousel_items,omitempty"`
}

type wireMatcher struct{}

func baseWire(b SegmentBase, kind SegmentKind) segmentWire {
	return segmentWire{
		ID:        b.ID,
		Type:      kind,
		Timestamp: b.Timestamp,
		Duration:  b.Duration.Seconds(),
	}
}

func adWire(w segmentWire, ad AdCreative) segmentWire {
	advertiser := ad.Advertiser
	w.Advertiser = &advertiser
	w.Headline = ad.Headline
	w.MediaURL = ad.MediaURL
	w.CTAText = ad.CTAText
	w.CTALink = ad.CTALink
	return w
}

func (wireMatcher) Image(s ImageSegment) segmentWire {
	w := baseWire(s.SegmentBase, KindImage)
	w.MediaURL, w.Link = s.MediaURL, s.Link
	return w
}

func (wireMatcher) Video(s VideoSegment) segmentWire {
	w := baseWire(s.SegmentBase, KindVideo)
	w.MediaURL, w.Link = s.MediaURL, s.Link
	return w
}

func (wireMatcher) AdImage(s AdImageSegment) segmentWire {
	return adWire(baseWire(s.SegmentBase, KindAdImage), s.AdCreative)
}

func (wireMatcher) AdVideo(s AdVideoSegment) segmentWire {
	return adWire(baseWire(s.SegmentBase, KindAdVideo), s.AdCreative)
}

func (wireMatcher) AdCarousel(s AdCarouselSegment) segmentWire {
	w := adWire(baseWire(s.SegmentBase, KindAdCarousel), s.AdCreative)
	w.CarouselItems = s.Items
	return w
}

func (w segmentWire) toSegment() (Segment, error) {
	if w.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidSegment)
	}
	if w.Duration < 0 {
		return nil, fmt.Errorf("%w: negative duration on %s", ErrInvalidSegment, w.ID)
	}

	base := SegmentBase{
		ID:        w.ID,
		Timestamp: w.Timestamp,
		Duration:  time.Duration(w.Duration * float64(time.Second)),
	}

	var ad AdCreative
	if w.Type.IsAd() {
		if w.Advertiser == nil {
			return nil, fmt.Errorf("%w: ad segment %s has no advertiser", ErrInvalidSegment, w.ID)
		}
		ad = AdCreative{
			Advertiser: *w.Advertiser,
			Headline:   w.Headline,
			MediaURL:   w.MediaURL,
			CTAText:    w.CTAText,
			CTALink:    w.CTALink,
		}
	}

	switch w.Type {
	case KindImage:
		return ImageSegment{SegmentBase: base, MediaURL: w.MediaURL, Link: w.Link}, nil
	case KindVideo:
		return VideoSegment{SegmentBase: base, MediaURL: w.MediaURL, Link: w.Link}, nil
	case KindAdImage:
		return AdImageSegment{SegmentBase: base, AdCreative: ad}, nil
	case KindAdVideo:
		return AdVideoSegment{SegmentBase: base, AdCreative: ad}, nil
	case KindAdCarousel:
		return AdCarouselSegment{SegmentBase: base, AdCreative: ad, Items: w.CarouselItems}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSegmentKind, w.Type)
}

func EncodeSegment(s Segment) ([]byte, error) {
	return json.Marshal(MatchSegment[segmentWire](s, wireMatcher{}))
}

func DecodeSegment(data []byte) (Segment, error) {
	var w segmentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return w.toSegment()
}
