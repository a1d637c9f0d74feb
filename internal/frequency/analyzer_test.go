package frequency

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"stagefinder/internal/scrape"
	"stagefinder/internal/store"
	"stagefinder/pkg/llm"
)

type scriptedLLM struct {
	reply string
	err   error
	calls int
}

func (s *scriptedLLM) Complete(_ context.Context, _ llm.Request) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(nopWriter{})
	return logger
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func blogHTML() string {
	return `<html><body>` + strings.Repeat("Posted on recent dates. ", 20) + `</body></html>`
}

func TestAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(blogHTML()))
	}))
	defer server.Close()

	client := &scriptedLLM{reply: `Here is the analysis:
{"last_post_date": "2026-08-20", "avg_posts_per_month": 4.5, "analysis": "Posts weekly, active blog."}`}

	analyzer := NewAnalyzer(scrape.NewFetcher(nil, nil), client, nil, testLogger())
	report := analyzer.Analyze(context.Background(), store.Source{
		ID:   "s1",
		Type: store.SourceTypeWebsite,
		URL:  server.URL,
	})

	if report.AvgPostsPerMonth != 4.5 {
		t.Fatalf("unexpected average: %v", report.AvgPostsPerMonth)
	}
	if report.LastPostDate == nil || report.LastPostDate.Day() != 20 {
		t.Fatalf("unexpected last post date: %v", report.LastPostDate)
	}
	if report.Analysis != "Posts weekly, active blog." {
		t.Fatalf("unexpected analysis: %q", report.Analysis)
	}
}

func TestAnalyzeFetchFailure(t *testing.T) {
	client := &scriptedLLM{reply: "{}"}
	analyzer := NewAnalyzer(scrape.NewFetcher(nil, nil), client, nil, testLogger())

	report := analyzer.Analyze(context.Background(), store.Source{
		ID:  "s1",
		URL: "http://127.0.0.1:1/unreachable",
	})
	if report.LastPostDate != nil || report.AvgPostsPerMonth != 0 {
		t.Fatalf("expected zero report, got %+v", report)
	}
	if !strings.HasPrefix(report.Analysis, "Error:") {
		t.Fatalf("expected error analysis, got %q", report.Analysis)
	}
	if client.calls != 0 {
		t.Fatal("model should not be called when fetch fails")
	}
}

func TestAnalyzeModelFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(blogHTML()))
	}))
	defer server.Close()

	client := &scriptedLLM{err: errors.New("model offline")}
	analyzer := NewAnalyzer(scrape.NewFetcher(nil, nil), client, nil, testLogger())

	report := analyzer.Analyze(context.Background(), store.Source{ID: "s1", URL: server.URL})
	if !strings.Contains(report.Analysis, "model offline") {
		t.Fatalf("expected failure reason in analysis, got %q", report.Analysis)
	}
}

func TestAnalyzeAllPersists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(blogHTML()))
	}))
	defer server.Close()

	client := &scriptedLLM{reply: `{"last_post_date": "2026-08-20", "avg_posts_per_month": 2, "analysis": "ok"}`}
	analyzer := NewAnalyzer(scrape.NewFetcher(nil, nil), client, nil, testLogger())

	var updatedIDs []string
	update := func(_ context.Context, sourceID string, lastPost *time.Time, avg float64) error {
		updatedIDs = append(updatedIDs, sourceID)
		if lastPost == nil || avg != 2 {
			t.Fatalf("unexpected update values: %v %v", lastPost, avg)
		}
		return nil
	}

	sources := []store.Source{
		{ID: "s1", Type: store.SourceTypeWebsite, URL: server.URL},
		{ID: "s2", Type: store.SourceTypeTwitter, URL: server.URL},
	}
	reports, err := analyzer.AnalyzeAll(context.Background(), sources, update)
	if err != nil {
		t.Fatalf("analyze all: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if len(updatedIDs) != 2 || updatedIDs[0] != "s1" || updatedIDs[1] != "s2" {
		t.Fatalf("unexpected updates: %v", updatedIDs)
	}
}

func TestParseFrequencyReplyStringNumber(t *testing.T) {
	parsed, err := parseFrequencyReply(`{"last_post_date": null, "avg_posts_per_month": "3.5", "analysis": "ok"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.AvgPostsPerMonth != 3.5 {
		t.Fatalf("string number not coerced: %v", parsed.AvgPostsPerMonth)
	}
}
