package scrape

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

func pageFromHTML(t *testing.T, pageURL, html string) *Page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return &Page{URL: pageURL, StatusCode: 200, Doc: doc}
}

func filler(n int) string {
	return strings.Repeat("event announcement text ", n)
}

func TestSegmentArticles(t *testing.T) {
	html := `<html><body>
		<article>
			<h2>Live in Berlin</h2>
			<time datetime="2026-09-15">Sep 15</time>
			<a href="/posts/berlin">permalink</a>
			<p>` + filler(10) + `</p>
		</article>
		<article>
			<h2>Reading in Amsterdam</h2>
			<span class="date">October 2, 2026</span>
			<p>` + filler(10) + `</p>
		</article>
	</body></html>`

	posts := Segment(pageFromHTML(t, "https://example.com/blog", html))
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Title != "Live in Berlin" {
		t.Fatalf("unexpected title %q", posts[0].Title)
	}
	if posts[0].Date != "2026-09-15" {
		t.Fatalf("datetime attribute not preferred: %q", posts[0].Date)
	}
	if posts[0].URL != "https://example.com/posts/berlin" {
		t.Fatalf("relative link not resolved: %q", posts[0].URL)
	}
	if posts[1].Date != "October 2, 2026" {
		t.Fatalf("unexpected date %q", posts[1].Date)
	}
	if posts[1].URL != "https://example.com/blog" {
		t.Fatalf("expected page url fallback, got %q", posts[1].URL)
	}
}

func TestSegmentDropsShortPosts(t *testing.T) {
	html := `<html><body>
		<article><p>too short</p></article>
		<article><h2>Real post</h2><p>` + filler(10) + `</p></article>
	</body></html>`

	posts := Segment(pageFromHTML(t, "https://example.com", html))
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if posts[0].Title != "Real post" {
		t.Fatalf("unexpected title %q", posts[0].Title)
	}
}

func TestSegmentFirstSelectorWins(t *testing.T) {
	// Both article and .post match; only articles should be returned.
	html := `<html><body>
		<article><h2>From article</h2><p>` + filler(10) + `</p></article>
		<div class="post"><h2>From div</h2><p>` + filler(10) + `</p></div>
	</body></html>`

	posts := Segment(pageFromHTML(t, "https://example.com", html))
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if posts[0].Title != "From article" {
		t.Fatalf("expected article selector to win, got %q", posts[0].Title)
	}
}

func TestSegmentFallbackWholePage(t *testing.T) {
	html := `<html><head><title>Appearances</title></head><body>
		<p>No recognizable containers here, just ` + filler(5) + `</p>
	</body></html>`

	posts := Segment(pageFromHTML(t, "https://example.com/about", html))
	if len(posts) != 1 {
		t.Fatalf("expected 1 fallback post, got %d", len(posts))
	}
	if posts[0].Title != "Appearances" {
		t.Fatalf("unexpected title %q", posts[0].Title)
	}
	if posts[0].URL != "https://example.com/about" {
		t.Fatalf("unexpected url %q", posts[0].URL)
	}
	if !strings.Contains(posts[0].Text, "No recognizable containers") {
		t.Fatalf("body text missing: %q", posts[0].Text)
	}
}

func TestSegmentCapsPostCount(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		sb.WriteString("<article><p>" + filler(10) + "</p></article>")
	}
	sb.WriteString("</body></html>")

	posts := Segment(pageFromHTML(t, "https://example.com", sb.String()))
	if len(posts) != maxPostsPerPage {
		t.Fatalf("expected %d posts, got %d", maxPostsPerPage, len(posts))
	}
}

func TestSegmentTruncatesLongPosts(t *testing.T) {
	html := `<html><body><article><p>` + filler(500) + `</p></article></body></html>`
	posts := Segment(pageFromHTML(t, "https://example.com", html))
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if len(posts[0].Text) > maxPostChars {
		t.Fatalf("post text not truncated: %d chars", len(posts[0].Text))
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	got := Truncate(strings.Repeat("a", 2999)+"é", 3000)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated string is not valid UTF-8: %q", got[len(got)-4:])
	}
	if len(got) != 2999 {
		t.Fatalf("expected cut before the split rune, got %d bytes", len(got))
	}

	if got := Truncate("héllo", 100); got != "héllo" {
		t.Fatalf("short string must pass through, got %q", got)
	}
	if got := Truncate("héllo", 0); got != "héllo" {
		t.Fatalf("non-positive max must pass through, got %q", got)
	}
}
