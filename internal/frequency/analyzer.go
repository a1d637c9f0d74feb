package frequency

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sirupsen/logrus"

	"stagefinder/internal/scrape"
	"stagefinder/internal/store"
	"stagefinder/pkg/clients"
	"stagefinder/pkg/llm"
)

const analysisSystemPrompt = "You are an expert at analyzing web pages to determine posting frequency " +
	"and activity. Always return valid JSON."

// Report summarizes how actively a source publishes. Analysis is always
// populated; when the page or model is unavailable it explains why instead.
type Report struct {
	SourceID         string     `json:"source_id,omitempty"`
	URL              string     `json:"url,omitempty"`
	LastPostDate     *time.Time `json:"last_post_date"`
	AvgPostsPerMonth float64    `json:"avg_posts_per_month"`
	Analysis         string     `json:"analysis"`
}

// UpdateFunc persists a report onto its source record.
type UpdateFunc func(ctx context.Context, sourceID string, lastPostDate *time.Time, avgPostsPerMonth float64) error

// Analyzer estimates posting cadence by showing the model a source page.
type Analyzer struct {
	fetcher *scrape.Fetcher
	llm     llm.Client
	pacer   *clients.Pacer
	logger  *logrus.Logger
}

func NewAnalyzer(fetcher *scrape.Fetcher, client llm.Client, pacer *clients.Pacer, logger *logrus.Logger) *Analyzer {
	return &Analyzer{fetcher: fetcher, llm: client, pacer: pacer, logger: logger}
}

// Analyze never returns an error: a source that cannot be fetched or
// analyzed yields a zero report with the failure described in Analysis.
func (a *Analyzer) Analyze(ctx context.Context, source store.Source) Report {
	report := Report{SourceID: source.ID, URL: source.URL, Analysis: "No analysis available"}

	page, err := a.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		report.Analysis = fmt.Sprintf("Error: %v", err)
		return report
	}
	pageText := scrape.FlattenText(page.Doc, 6000)

	prompt := fmt.Sprintf(`Analyze this %s page and determine:

1. When was the most recent post/update published? (provide as ISO date: YYYY-MM-DD)
2. Estimate average posts per month based on visible content from the last 2-3 months
3. Brief analysis of posting activity and frequency pattern

Focus on recent activity (last 2-3 months) to give an accurate picture of current posting frequency.

URL: %s

Page content:
%s

Return ONLY valid JSON in this exact format:
{
  "last_post_date": "YYYY-MM-DD or null",
  "avg_posts_per_month": number or 0,
  "analysis": "brief description"
}`, source.Type, source.URL, pageText)

	reply, err := a.llm.Complete(ctx, llm.Request{
		System:      analysisSystemPrompt,
		User:        prompt,
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		report.Analysis = fmt.Sprintf("Error: %v", err)
		return report
	}

	parsed, err := parseFrequencyReply(reply)
	if err != nil {
		report.Analysis = fmt.Sprintf("Error: %v", err)
		return report
	}

	report.AvgPostsPerMonth = parsed.AvgPostsPerMonth
	if parsed.Analysis != "" {
		report.Analysis = parsed.Analysis
	}
	if parsed.LastPostDate != "" {
		if t, err := dateparse.ParseAny(parsed.LastPostDate); err == nil {
			report.LastPostDate = &t
		}
	}
	return report
}

// AnalyzeAll works through a person's sources sequentially, persisting each
// result via update before moving on.
func (a *Analyzer) AnalyzeAll(ctx context.Context, sources []store.Source, update UpdateFunc) ([]Report, error) {
	reports := make([]Report, 0, len(sources))
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if a.pacer != nil {
			if err := a.pacer.Wait(ctx); err != nil {
				return reports, err
			}
		}

		report := a.Analyze(ctx, source)
		if update != nil {
			if err := update(ctx, source.ID, report.LastPostDate, report.AvgPostsPerMonth); err != nil {
				a.logger.WithError(err).WithField("url", source.URL).Error("Failed to persist frequency report")
			}
		}

		a.logger.WithFields(logrus.Fields{
			"url":             source.URL,
			"posts_per_month": report.AvgPostsPerMonth,
		}).Info("Analyzed posting frequency")
		reports = append(reports, report)
	}
	return reports, nil
}

type rawFrequencyReply struct {
	LastPostDate     string          `json:"last_post_date"`
	AvgPostsPerMonth json.RawMessage `json:"avg_posts_per_month"`
	Analysis         string          `json:"analysis"`
}

type parsedFrequency struct {
	LastPostDate     string
	AvgPostsPerMonth float64
	Analysis         string
}

// parseFrequencyReply pulls the first JSON object out of a model reply. The
// average is accepted as either a number or a numeric string.
func parseFrequencyReply(reply string) (parsedFrequency, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return parsedFrequency{}, fmt.Errorf("no JSON object in reply")
	}

	var raw rawFrequencyReply
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return parsedFrequency{}, err
	}

	out := parsedFrequency{LastPostDate: raw.LastPostDate, Analysis: raw.Analysis}
	if len(raw.AvgPostsPerMonth) > 0 {
		var num float64
		if err := json.Unmarshal(raw.AvgPostsPerMonth, &num); err == nil {
			out.AvgPostsPerMonth = num
		} else {
			var str string
			if err := json.Unmarshal(raw.AvgPostsPerMonth, &str); err == nil {
				fmt.Sscanf(str, "%f", &num)
				out.AvgPostsPerMonth = num
			}
		}
	}
	return out, nil
}
