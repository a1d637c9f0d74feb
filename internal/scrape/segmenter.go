package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Post is one announcement-sized unit of a page: a blog entry, an article
// teaser, or the whole page when no post containers exist.
type Post struct {
	Title string
	URL   string
	Date  string
	Text  string
}

const (
	maxPostsPerPage  = 20
	minPostChars     = 100
	maxPostChars     = 3000
	maxFallbackChars = 8000
)

// postSelectors are tried in order; the first selector with any matches
// wins, and the rest are ignored.
var postSelectors = []string{
	"article",
	".post",
	".entry",
	".blog-post",
	".article",
	`[class*="post-"]`,
	`[class*="entry-"]`,
	".hentry",
}

const (
	titleSelector = "h1, h2, h3, .title, .entry-title, .post-title"
	dateSelector  = `time, .date, .published, [class*="date"]`
)

// Segment splits a fetched page into posts. Pages without recognizable post
// containers collapse to a single post carrying the page title and body.
func Segment(page *Page) []Post {
	base, _ := url.Parse(page.URL)

	var matched *goquery.Selection
	for _, selector := range postSelectors {
		sel := page.Doc.Find(selector)
		if sel.Length() > 0 {
			matched = sel
			break
		}
	}

	var posts []Post
	if matched != nil {
		matched.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := Truncate(collapseWhitespace(sel.Text()), maxPostChars)
			if len(text) < minPostChars {
				return true
			}
			posts = append(posts, Post{
				Title: extractTitle(sel),
				URL:   extractLink(sel, base, page.URL),
				Date:  extractDate(sel),
				Text:  text,
			})
			return len(posts) < maxPostsPerPage
		})
	}

	if len(posts) == 0 {
		// No usable containers: the whole page becomes one post.
		title := PageTitle(page.Doc)
		if title == "" {
			title = "Unknown"
		}
		posts = append(posts, Post{
			Title: title,
			URL:   page.URL,
			Text:  FlattenText(page.Doc, maxFallbackChars),
		})
	}
	return posts
}

func extractTitle(sel *goquery.Selection) string {
	title := collapseWhitespace(sel.Find(titleSelector).First().Text())
	if title == "" {
		return "Untitled"
	}
	return title
}

// extractDate prefers a machine-readable datetime attribute over the
// element's display text.
func extractDate(sel *goquery.Selection) string {
	node := sel.Find(dateSelector).First()
	if dt, ok := node.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		return strings.TrimSpace(dt)
	}
	return collapseWhitespace(node.Text())
}

// extractLink resolves the post's first anchor against the page URL, so
// relative permalinks come back absolute.
func extractLink(sel *goquery.Selection, base *url.URL, fallback string) string {
	href, ok := sel.Find("a[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return fallback
	}
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return fallback
	}
	return base.ResolveReference(ref).String()
}
