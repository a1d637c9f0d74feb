package discovery

import (
	"net/url"
	"strings"

	"stagefinder/internal/store"
)

// GuessSources proposes sources from common URL patterns without touching
// the network. It is the fallback when no model is configured; everything
// it returns is a guess and lands with low-to-medium confidence.
func GuessSources(name string) []store.SourceSeed {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	clean := strings.ToLower(strings.Join(strings.Fields(name), ""))
	underscored := strings.ToLower(strings.Join(strings.Fields(name), "_"))
	dashed := strings.ToLower(strings.Join(strings.Fields(name), "-"))

	seeds := []store.SourceSeed{
		{Type: store.SourceTypeWebsite, URL: "https://www." + clean + ".com", Confidence: "medium"},
		{Type: store.SourceTypeInstagram, URL: "https://www.instagram.com/" + clean, Confidence: "medium"},
		{Type: store.SourceTypeOther, URL: "https://www.eventbrite.com/o/" + dashed, Confidence: "low"},
		{Type: store.SourceTypeOther, URL: "https://dice.fm/artist/" + dashed, Confidence: "low"},
		{Type: store.SourceTypeOther, URL: "https://www.songkick.com/search?query=" + url.QueryEscape(name), Confidence: "low"},
	}

	// Twitter handles are 3-15 characters; skip the guess when the
	// collapsed name does not fit.
	if handle := twitterHandle(clean, underscored); handle != "" {
		seeds = append([]store.SourceSeed{{
			Type:       store.SourceTypeTwitter,
			URL:        "https://twitter.com/" + handle,
			Confidence: "high",
		}}, seeds...)
	}
	return seeds
}

func twitterHandle(clean, underscored string) string {
	for _, candidate := range []string{clean, underscored} {
		if len(candidate) >= 3 && len(candidate) <= 15 {
			return candidate
		}
	}
	return ""
}
