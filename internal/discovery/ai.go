// Package discovery finds announcement sources for a tracked person, either
// by asking the model or by guessing common URL patterns.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"stagefinder/internal/scrape"
	"stagefinder/internal/store"
	"stagefinder/pkg/llm"
)

const (
	searchSystemPrompt = "You are a helpful assistant that finds official event sources for public figures. " +
		"Always return valid JSON."
	analysisSystemPrompt = "You are analyzing webpage content to verify if it belongs to the correct person " +
		"and posts event information. Always return valid JSON."
)

// Discovered is a proposed source that survived URL verification, with the
// model's judgement of how likely it is to be the right person's channel.
type Discovered struct {
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	Confidence string    `json:"confidence"`
	Reasoning  string    `json:"reasoning,omitempty"`
	Score      int       `json:"ai_confidence_score"`
	Summary    string    `json:"ai_analysis_summary,omitempty"`
	VerifiedAt time.Time `json:"verification_date"`
}

// Seed converts a discovery into the insertable source form.
func (d Discovered) Seed() store.SourceSeed {
	return store.SourceSeed{Type: d.Type, URL: d.URL, Confidence: d.Confidence}
}

// AIDiscoverer proposes sources with the model, then checks each URL
// actually answers before scoring it.
type AIDiscoverer struct {
	llm     llm.Client
	fetcher *scrape.Fetcher
	logger  *logrus.Logger
	now     func() time.Time
}

func NewAIDiscoverer(client llm.Client, fetcher *scrape.Fetcher, logger *logrus.Logger) *AIDiscoverer {
	return &AIDiscoverer{llm: client, fetcher: fetcher, logger: logger, now: time.Now}
}

// Discover runs the propose-verify-analyze flow for one person. Unreachable
// proposals are dropped silently; only the initial model call can fail the
// whole run.
func (d *AIDiscoverer) Discover(ctx context.Context, name, description string) ([]Discovered, error) {
	proposals, err := d.propose(ctx, name, description)
	if err != nil {
		return nil, err
	}
	d.logger.WithFields(logrus.Fields{
		"person":    name,
		"proposals": len(proposals),
	}).Info("Model proposed sources")

	var verified []Discovered
	for _, proposal := range proposals {
		if err := ctx.Err(); err != nil {
			return verified, err
		}

		page, err := d.fetcher.Fetch(ctx, proposal.URL)
		if err != nil {
			d.logger.WithField("url", proposal.URL).Debug("Proposed source unreachable")
			continue
		}

		score, summary := d.analyze(ctx, proposal.URL, scrape.FlattenText(page.Doc, 5000), name)
		proposal.Score = score
		proposal.Summary = summary
		proposal.VerifiedAt = d.now()
		verified = append(verified, proposal)
	}

	d.logger.WithFields(logrus.Fields{
		"person":   name,
		"verified": len(verified),
		"proposed": len(proposals),
	}).Info("Source discovery complete")
	return verified, nil
}

func (d *AIDiscoverer) propose(ctx context.Context, name, description string) ([]Discovered, error) {
	subject := name
	if description != "" {
		subject = fmt.Sprintf("%s (%s)", name, description)
	}

	prompt := fmt.Sprintf(`You are helping discover official event announcement sources for %s.

Find the following information:
1. Official website (with events page if available)
2. Twitter/X account
3. Instagram account
4. Mastodon account (if they use it)
5. Publishers or venues that announce their events
6. Any other official sources where they announce events

IMPORTANT:
- Only return sources you are confident about
- Prefer verified accounts when available
- Focus on sources that actually post event announcements
- Do NOT include event platform aggregators like Eventbrite, Songkick, etc.

Return results as a JSON array with this exact structure:
[
  {
    "type": "website",
    "url": "https://example.com",
    "confidence": "high",
    "reasoning": "Official website with events page"
  }
]

Type must be one of: website, twitter, instagram, mastodon, publisher, other
Confidence must be one of: high, medium, low

Return ONLY the JSON array, no other text.`, subject)

	reply, err := d.llm.Complete(ctx, llm.Request{
		System:      searchSystemPrompt,
		User:        prompt,
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("source proposal: %w", err)
	}

	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in proposal reply")
	}

	var proposals []Discovered
	if err := json.Unmarshal([]byte(reply[start:end+1]), &proposals); err != nil {
		return nil, fmt.Errorf("parse proposal reply: %w", err)
	}

	out := proposals[:0]
	for _, p := range proposals {
		if p.URL != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

type contentAnalysis struct {
	Confidence      float64 `json:"confidence"`
	IsCorrectPerson bool    `json:"is_correct_person"`
	PostsEvents     bool    `json:"posts_events"`
	Summary         string  `json:"summary"`
}

// analyze scores a reachable page 0-100. A page about the wrong person is
// capped at 30; one with no event posts loses 20 points. Model failures
// score a neutral 50.
func (d *AIDiscoverer) analyze(ctx context.Context, url, pageText, name string) (int, string) {
	excerpt := scrape.Truncate(pageText, 2000)

	prompt := fmt.Sprintf(`Analyze this webpage content for %s:
URL: %s

Content snippet: %s...

Questions:
1. Is this page about the correct person?
2. Does this source post event announcements? (tours, readings, talks, appearances, etc.)
3. Can you find evidence of recent event announcements?

Provide your analysis as JSON:
{
  "confidence": 85,
  "is_correct_person": true,
  "posts_events": true,
  "summary": "Official Twitter account with 50K followers. Recent tweets announce upcoming book tour dates."
}

Confidence score should be 0-100.
Return ONLY the JSON object, no other text.`, name, url, excerpt)

	reply, err := d.llm.Complete(ctx, llm.Request{
		System:      analysisSystemPrompt,
		User:        prompt,
		Temperature: 0.2,
		MaxTokens:   500,
	})
	if err != nil {
		d.logger.WithError(err).Warn("Content analysis request failed")
		return 50, "Unable to analyze content automatically"
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return 50, "Unable to analyze content automatically"
	}

	var analysis contentAnalysis
	if err := json.Unmarshal([]byte(reply[start:end+1]), &analysis); err != nil {
		return 50, "Unable to analyze content automatically"
	}

	score := analysis.Confidence
	if !analysis.IsCorrectPerson {
		score = math.Min(score, 30)
	}
	if !analysis.PostsEvents {
		score = math.Max(0, score-20)
	}
	return int(math.Round(score)), analysis.Summary
}
