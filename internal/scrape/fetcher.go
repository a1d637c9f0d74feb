package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"stagefinder/pkg/clients"
)

// browserUserAgent is sent on every request. Many announcement pages serve
// empty shells or block outright when they see a default Go user agent.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const (
	maxRedirects = 5
	maxBodyBytes = 10 << 20
)

// FetchError reports a request that completed with a non-success status or
// failed outright. Callers distinguish "page said no" from "page said yes"
// via StatusCode.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Page is a successfully fetched and parsed HTML document.
type Page struct {
	URL        string
	StatusCode int
	Doc        *goquery.Document
}

// Fetcher retrieves pages politely: one shared pacer spaces requests, and a
// redirect cap bounds how far a source URL can wander.
type Fetcher struct {
	client *http.Client
	pacer  *clients.Pacer
}

// NewFetcher builds a fetcher. A nil client gets a 10 second timeout and the
// redirect cap; a nil pacer disables pacing.
func NewFetcher(client *http.Client, pacer *clients.Pacer) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if client.CheckRedirect == nil {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		}
	}
	return &Fetcher{client: client, pacer: pacer}
}

// Fetch retrieves and parses one page. Non-2xx responses return a
// *FetchError carrying the status code.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if pageURL == "" {
		return nil, errors.New("page url is required")
	}
	if f.pacer != nil {
		if err := f.pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("parse html: %w", err)}
	}

	return &Page{URL: pageURL, StatusCode: resp.StatusCode, Doc: doc}, nil
}
