package playback

import (
	"time"

	"story-playback/internal/models"
)

const (
	DefaultImageDuration   = 5 * time.Second
	DefaultVideoDuration   = 5 * time.Second
	DefaultAdImageDuration = 10 * time.Second
	MaxAdImageDuration     = 10 * time.Second
	MaxAdVideoDuration     = 15 * time.Second

	ProgressInterval = 50 * time.Millisecond
)

// ResolveDuration returns how long a segment plays. natural is the length
// reported by the media element, zero while unknown or when loading failed.
func ResolveDuration(s models.Segment, natural time.Duration) time.Duration {
	return models.MatchSegment[time.Duration](s, durationRule{natural: natural})
}

type durationRule struct {
	natural time.Duration
}

func (r durationRule) Image(s models.ImageSegment) time.Duration {
	return declaredOr(s.Duration, DefaultImageDuration)
}

func (r durationRule) Video(models.VideoSegment) time.Duration {
	return naturalOr(r.natural, DefaultVideoDuration)
}

func (r durationRule) AdImage(s models.AdImageSegment) time.Duration {
	return min(declaredOr(s.Duration, DefaultAdImageDuration), MaxAdImageDuration)
}

func (r durationRule) AdVideo(models.AdVideoSegment) time.Duration {
	return min(naturalOr(r.natural, MaxAdVideoDuration), MaxAdVideoDuration)
}

func (r durationRule) AdCarousel(s models.AdCarouselSegment) time.Duration {
	return min(declaredOr(s.Duration, DefaultAdImageDuration), MaxAdImageDuration)
}

func declaredOr(declared, fallback time.Duration) time.Duration {
	if declared > 0 {
		return declared
	}
	return fallback
}

func naturalOr(natural, fallback time.Duration) time.Duration {
	if natural > 0 {
		return natural
	}
	return fallback
}
