package scrape

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// FlattenText returns the document body as one whitespace-collapsed string,
// truncated to max characters. Script and style contents are dropped first.
func FlattenText(doc *goquery.Document, max int) string {
	doc.Find("script, style, noscript").Remove()
	text := collapseWhitespace(doc.Find("body").Text())
	if text == "" {
		text = collapseWhitespace(doc.Text())
	}
	return Truncate(text, max)
}

// PageTitle returns the document's <title>, collapsed and trimmed.
func PageTitle(doc *goquery.Document) string {
	return collapseWhitespace(doc.Find("title").First().Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max bytes, backing off to the nearest rune
// boundary so the result stays valid UTF-8. max <= 0 means no limit.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
