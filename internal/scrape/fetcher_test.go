package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetcherParsesPage(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<html><head><title>Tour Dates</title></head><body><p>hello</p></body></html>`))
	}))
	defer server.Close()

	fetcher := NewFetcher(nil, nil)
	page, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", page.StatusCode)
	}
	if title := PageTitle(page.Doc); title != "Tour Dates" {
		t.Fatalf("unexpected title %q", title)
	}
	if gotUA != browserUserAgent {
		t.Fatalf("unexpected user agent %q", gotUA)
	}
}

func TestFetcherNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewFetcher(nil, nil)
	_, err := fetcher.Fetch(context.Background(), server.URL+"/gone")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d", fetchErr.StatusCode)
	}
}

func TestFetcherRedirectCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(nil, nil)
	_, err := fetcher.Fetch(context.Background(), server.URL+"/loop")
	if err == nil {
		t.Fatal("expected redirect loop to fail")
	}
}

func TestFetcherEmptyURL(t *testing.T) {
	fetcher := NewFetcher(nil, nil)
	if _, err := fetcher.Fetch(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
}
