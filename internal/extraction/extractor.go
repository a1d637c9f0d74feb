package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"stagefinder/internal/scrape"
	"stagefinder/pkg/llm"
)

// Candidate is one event mention pulled out of a post by the model, before
// verification.
type Candidate struct {
	Title           string `json:"title"`
	Date            string `json:"date"`
	Location        string `json:"location"`
	URL             string `json:"url"`
	RegistrationURL string `json:"registration_url"`
}

const extractionSystemPrompt = "You are an expert at extracting event information from text. " +
	"You identify book signings, conventions, talks, readings, book releases, online events, " +
	"and any public appearances. Return only valid JSON arrays."

// Extractor asks the model to pull event mentions out of individual posts.
type Extractor struct {
	llm llm.Client
}

func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{llm: client}
}

// ExtractFromPost returns every event the model finds in one post. A post
// with no events returns an empty slice, not an error.
func (e *Extractor) ExtractFromPost(ctx context.Context, post scrape.Post) ([]Candidate, error) {
	date := post.Date
	if date == "" {
		date = "Unknown"
	}

	prompt := fmt.Sprintf(`Analyze this post/article and extract ANY events mentioned (appearances, book signings, conventions, talks, readings, book releases, online events, etc.).

Post Title: %s
Post URL: %s
Post Date: %s

Content:
%s

Extract ALL events mentioned. For each event found, provide:
1. Event title/name
2. Event date (ISO format YYYY-MM-DD, or best estimate)
3. Location (physical address, city, or "Online" for virtual events)
4. Event URL if mentioned (or use post URL if not specified)
5. Registration/ticket URL if available

Return ONLY valid JSON array:
[
  {
    "title": "Event title",
    "date": "YYYY-MM-DD or null",
    "location": "Location or Online",
    "url": "Event URL or post URL",
    "registration_url": "Ticket/RSVP URL if available"
  }
]

If NO events are found, return: []`, post.Title, post.URL, date, post.Text)

	reply, err := e.llm.Complete(ctx, llm.Request{
		System:      extractionSystemPrompt,
		User:        prompt,
		Temperature: 0.2,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}

	candidates, err := parseCandidateArray(reply)
	if err != nil {
		return nil, fmt.Errorf("parse extraction reply: %w", err)
	}

	// The model sometimes omits the URL; the post permalink is the fallback.
	for i := range candidates {
		if candidates[i].URL == "" {
			candidates[i].URL = post.URL
		}
	}
	return candidates, nil
}

// parseCandidateArray pulls the first JSON array out of a model reply. The
// model is prompted to return bare JSON but often wraps it in prose or code
// fences.
func parseCandidateArray(reply string) ([]Candidate, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in reply")
	}

	var candidates []Candidate
	if err := json.Unmarshal([]byte(reply[start:end+1]), &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}
