package playback

import (
	"fmt"
	"strings"
	"time"

	"story-playback/internal/models"

	"github.com/dustin/go-humanize"
)

type Footer string

const (
	FooterReply Footer = "reply"
	FooterCTA   Footer = "cta"
)

const SponsoredLabel = "Sponsored"

// Presentation is what the viewer chrome shows around a segment.
type Presentation struct {
	Header     models.StoryUser `json:"header"`
	HeaderLink string           `json:"header_link"`
	Label      string           `json:"label"`
	Sponsored  bool             `json:"sponsored"`
	Headline   string           `json:"headline,omitempty"`
	Footer     Footer           `json:"footer"`
	CTAText    string           `json:"cta_text,omitempty"`
	CTALink    string           `json:"cta_link,omitempty"`
	ShareText  string           `json:"share_text"`
	ShareURL   string           `json:"share_url"`
}

// Present builds the chrome for a segment owned by owner. Sponsored segments
// show the advertiser, a Sponsored label and a single call to action instead
// of the reply input.
func Present(owner models.StoryUser, seg models.Segment, now time.Time, baseURL string) Presentation {
	baseURL = strings.TrimRight(baseURL, "/")

	if ad, ok := models.AdOf(seg); ok {
		shareText := ad.Headline
		if shareText == "" {
			shareText = fmt.Sprintf("Check out this ad from %s!", ad.Advertiser.Username)
		}
		return Presentation{
			Header:     ad.Advertiser,
			HeaderLink: ad.CTALink,
			Label:      SponsoredLabel,
			Sponsored:  true,
			Headline:   ad.Headline,
			Footer:     FooterCTA,
			CTAText:    ad.CTAText,
			CTALink:    ad.CTALink,
			ShareText:  shareText,
			ShareURL:   ad.CTALink,
		}
	}

	return Presentation{
		Header:     owner,
		HeaderLink: fmt.Sprintf("/profile/%s", owner.Username),
		Label:      humanize.RelTime(seg.CreatedAt(), now, "ago", "from now"),
		Footer:     FooterReply,
		ShareText:  fmt.Sprintf("Check out this story from %s!", owner.Username),
		ShareURL:   fmt.Sprintf("%s/story/%s/%s", baseURL, owner.ID, seg.SegmentID()),
	}
}
