package extraction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sirupsen/logrus"

	"stagefinder/internal/scrape"
	"stagefinder/pkg/llm"
)

// registrationKeywords mark a URL as a plausible ticketing or signup page.
var registrationKeywords = []string{
	"ticket", "register", "rsvp", "eventbrite", "dice", "event", "booking",
}

const contentCheckSystemPrompt = "You verify if webpages match event details. Answer only YES or NO."

// VerificationResult records the outcome of the four advisory checks. A
// failing result never blocks the candidate; it travels with it into the
// review queue.
type VerificationResult struct {
	HTTPCheck         bool
	ContentCheck      bool
	DateCheck         bool
	RegistrationCheck bool
	Errors            []string
}

// Passed reports whether every check succeeded.
func (r VerificationResult) Passed() bool {
	return r.HTTPCheck && r.ContentCheck && r.DateCheck && r.RegistrationCheck
}

// Verifier runs the advisory checks against an extracted candidate.
type Verifier struct {
	fetcher *scrape.Fetcher
	llm     llm.Client
	logger  *logrus.Logger
	now     func() time.Time
}

func NewVerifier(fetcher *scrape.Fetcher, client llm.Client, logger *logrus.Logger) *Verifier {
	return &Verifier{fetcher: fetcher, llm: client, logger: logger, now: time.Now}
}

// Verify runs all four checks. The content check only runs when the URL is
// reachable; an unreachable page fails both.
func (v *Verifier) Verify(ctx context.Context, c Candidate) VerificationResult {
	var result VerificationResult

	if c.URL == "" {
		result.Errors = append(result.Errors, "No URL provided")
	} else {
		page, err := v.fetcher.Fetch(ctx, c.URL)
		if err != nil {
			var fetchErr *scrape.FetchError
			if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("HTTP status: %d", fetchErr.StatusCode))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("HTTP check failed: %v", err))
			}
		} else if page.StatusCode != http.StatusOK {
			// A 2xx other than a plain 200 is still suspect for an
			// event page; the content check needs a definitive body.
			result.Errors = append(result.Errors, fmt.Sprintf("HTTP status: %d", page.StatusCode))
		} else {
			result.HTTPCheck = true
			result.ContentCheck = v.contentMatches(ctx, c, scrape.FlattenText(page.Doc, 0))
			if !result.ContentCheck {
				result.Errors = append(result.Errors, "Page content does not match event details")
			}
		}
	}

	result.DateCheck = ValidEventDate(c.Date, v.now())
	if !result.DateCheck {
		result.Errors = append(result.Errors, "Invalid or implausible date")
	}

	result.RegistrationCheck = HasRegistrationSignal(c)
	if !result.RegistrationCheck {
		result.Errors = append(result.Errors, "No registration/ticket URL found")
	}

	v.logger.WithFields(logrus.Fields{
		"title":  c.Title,
		"passed": result.Passed(),
		"errors": len(result.Errors),
	}).Debug("Verified event candidate")

	return result
}

// contentMatches asks the model whether the fetched page actually describes
// this candidate. Model failures count as a mismatch, never an error.
func (v *Verifier) contentMatches(ctx context.Context, c Candidate, pageText string) bool {
	if len(pageText) < 100 {
		return false
	}

	date := c.Date
	if date == "" {
		date = "Unknown"
	}
	location := c.Location
	if location == "" {
		location = "Unknown"
	}
	excerpt := scrape.Truncate(pageText, 3000)

	prompt := fmt.Sprintf(`You are verifying if a webpage actually describes a specific event.

Event details to verify:
- Title: %s
- Date: %s
- Location: %s

Webpage content (first 3000 chars):
%s

Questions:
1. Does this webpage actually describe the event "%s"?
2. Is this a real event announcement (not a countdown timer, promotional content, or homepage)?
3. Does the webpage mention the event date %s?
4. Does the content match the event details above?

Answer with ONLY "YES" or "NO" - nothing else.
If the page actually describes this specific event, answer YES.
If the page is just a homepage, countdown, or doesn't match, answer NO.`,
		c.Title, date, location, excerpt, c.Title, c.Date)

	reply, err := v.llm.Complete(ctx, llm.Request{
		System:      contentCheckSystemPrompt,
		User:        prompt,
		Temperature: 0.1,
		MaxTokens:   10,
	})
	if err != nil {
		v.logger.WithError(err).Warn("Content validation request failed")
		return false
	}
	return strings.ToUpper(strings.TrimSpace(reply)) == "YES"
}

// ValidEventDate reports whether a date string parses and lands in the
// plausible window: no more than a day in the past and no more than two
// years out. Countdown strings and junk fail here.
func ValidEventDate(s string, now time.Time) bool {
	if s == "" {
		return false
	}
	eventDate, err := dateparse.ParseAny(s)
	if err != nil {
		return false
	}
	if eventDate.Before(now.Add(-24 * time.Hour)) {
		return false
	}
	return !eventDate.After(now.AddDate(2, 0, 0))
}

// HasRegistrationSignal reports whether the candidate carries an explicit
// registration URL, or an event URL that looks like a ticketing page.
func HasRegistrationSignal(c Candidate) bool {
	if c.RegistrationURL != "" {
		return true
	}
	if c.URL == "" {
		return false
	}
	urlLower := strings.ToLower(c.URL)
	for _, keyword := range registrationKeywords {
		if strings.Contains(urlLower, keyword) {
			return true
		}
	}
	return false
}
