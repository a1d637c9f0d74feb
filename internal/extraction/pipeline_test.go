package extraction

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stagefinder/internal/store"
)

type fakeQueue struct {
	enqueued []store.QueuedCandidate
	err      error
}

func (f *fakeQueue) EnqueueCandidate(_ context.Context, c store.QueuedCandidate) (store.QueuedCandidate, error) {
	if f.err != nil {
		return store.QueuedCandidate{}, f.err
	}
	f.enqueued = append(f.enqueued, c)
	return c, nil
}

func eventPageHTML() string {
	return `<html><body>` + strings.Repeat("Book signing with the author on September 15 in Berlin. Tickets available. ", 10) + `</body></html>`
}

func sourcePageHTML() string {
	return `<html><body>
		<article>
			<h2>September news</h2>
			<time datetime="2026-09-01">Sep 1</time>
			<p>` + strings.Repeat("Join me for a book signing in Berlin on September 15. ", 5) + `</p>
		</article>
	</body></html>`
}

func TestPipelineRunSource(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blog":
			w.Write([]byte(sourcePageHTML()))
		case "/tickets-signing":
			w.Write([]byte(eventPageHTML()))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	extractionReply := fmt.Sprintf(`[{"title": "Book signing", "date": "2026-09-15", "location": "Berlin", "url": "%s/tickets-signing", "registration_url": ""}]`, server.URL)
	client := &scriptedLLM{replies: []string{extractionReply, "YES"}}

	queue := &fakeQueue{}
	fetcher := newTestFetcher()
	verifier := NewVerifier(fetcher, client, testLogger())
	verifier.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }

	pipeline := NewPipeline(PipelineConfig{
		Fetcher:   fetcher,
		Extractor: NewExtractor(client),
		Verifier:  verifier,
		Queue:     queue,
		Logger:    testLogger(),
	})

	summary, err := pipeline.RunSource(context.Background(), store.Source{
		ID:       "s1",
		PersonID: "p1",
		URL:      server.URL + "/blog",
		Status:   store.SourceStatusActive,
	})
	if err != nil {
		t.Fatalf("run source: %v", err)
	}
	if summary.Extracted != 1 || summary.Verified != 1 || summary.Saved != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued candidate, got %d", len(queue.enqueued))
	}
	c := queue.enqueued[0]
	if !c.HTTPCheck || !c.ContentCheck || !c.DateCheck || !c.RegistrationCheck {
		t.Fatalf("expected all checks recorded as passed: %+v", c)
	}
	if c.SourceID == nil || *c.SourceID != "s1" {
		t.Fatalf("source id not carried: %v", c.SourceID)
	}
	if c.OriginalPostURL == "" || c.OriginalPostText == "" {
		t.Fatal("original post provenance missing")
	}
}

func TestPipelineEnqueuesFailedVerification(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blog" {
			w.Write([]byte(sourcePageHTML()))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	// Candidate URL 404s: verification fails but the candidate still lands
	// in the queue.
	extractionReply := fmt.Sprintf(`[{"title": "Ghost event", "date": "not a real date", "location": "", "url": "%s/gone", "registration_url": ""}]`, server.URL)
	client := &scriptedLLM{replies: []string{extractionReply}}

	queue := &fakeQueue{}
	fetcher := newTestFetcher()
	verifier := NewVerifier(fetcher, client, testLogger())

	pipeline := NewPipeline(PipelineConfig{
		Fetcher:   fetcher,
		Extractor: NewExtractor(client),
		Verifier:  verifier,
		Queue:     queue,
		Logger:    testLogger(),
	})

	summary, err := pipeline.RunSource(context.Background(), store.Source{
		ID:       "s1",
		PersonID: "p1",
		URL:      server.URL + "/blog",
	})
	if err != nil {
		t.Fatalf("run source: %v", err)
	}
	if summary.Extracted != 1 || summary.Verified != 0 || summary.Saved != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("failed candidate not enqueued")
	}
	c := queue.enqueued[0]
	if c.HTTPCheck || c.ContentCheck || c.DateCheck {
		t.Fatalf("checks should be recorded as failed: %+v", c)
	}
	if len(c.VerificationErrors) == 0 {
		t.Fatal("expected verification errors to travel with candidate")
	}
}

func TestPipelineRunPersonSkipsInactive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sourcePageHTML()))
	}))
	defer server.Close()

	client := &scriptedLLM{replies: []string{"[]"}}
	queue := &fakeQueue{}
	fetcher := newTestFetcher()

	pipeline := NewPipeline(PipelineConfig{
		Fetcher:   fetcher,
		Extractor: NewExtractor(client),
		Verifier:  NewVerifier(fetcher, client, testLogger()),
		Queue:     queue,
		Logger:    testLogger(),
	})

	sources := []store.Source{
		{ID: "s1", PersonID: "p1", URL: server.URL, Status: store.SourceStatusActive},
		{ID: "s2", PersonID: "p1", URL: server.URL, Status: store.SourceStatusInactive},
	}
	summary, err := pipeline.RunPerson(context.Background(), store.Person{ID: "p1", Name: "Ada"}, sources)
	if err != nil {
		t.Fatalf("run person: %v", err)
	}
	if summary.Failed != 0 || summary.Extracted != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// One extraction call for the active source only.
	if len(client.requests) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(client.requests))
	}
}

func TestPipelineCountsSourceFailures(t *testing.T) {
	client := &scriptedLLM{replies: []string{"[]"}}
	queue := &fakeQueue{}
	fetcher := newTestFetcher()

	pipeline := NewPipeline(PipelineConfig{
		Fetcher:   fetcher,
		Extractor: NewExtractor(client),
		Verifier:  NewVerifier(fetcher, client, testLogger()),
		Queue:     queue,
		Logger:    testLogger(),
	})

	sources := []store.Source{
		{ID: "s1", PersonID: "p1", URL: "http://127.0.0.1:1/unreachable", Status: store.SourceStatusActive},
	}
	summary, err := pipeline.RunPerson(context.Background(), store.Person{ID: "p1", Name: "Ada"}, sources)
	if err != nil {
		t.Fatalf("run person: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("expected 1 failed source, got %+v", summary)
	}
}
