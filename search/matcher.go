package search

import (
	"strings"

	"github.com/noelzubin/papers_search/library"
)

// ContentSource is the read side of the content cache.
type ContentSource interface {
	Get(path string) (string, bool)
}

// Normalize trims and lower-cases a query. Done once per query and reused
// by both phases.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// TitleMatches reports whether the document title contains the normalized
// query. The empty query matches everything.
func TitleMatches(doc *library.Document, nq string) bool {
	if nq == "" {
		return true
	}
	return strings.Contains(strings.ToLower(doc.Title), nq)
}

// ContentMatches reports whether the cached body of a text document contains
// the normalized query. It never fetches: an uncached document doesn't match.
func ContentMatches(doc *library.Document, nq string, contents ContentSource) bool {
	if doc.Kind != library.Text {
		return false
	}
	body, ok := contents.Get(doc.Path)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(body), nq)
}
