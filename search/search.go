package search

import "github.com/noelzubin/papers_search/library"

// State of the search scheduler.
type State int

const (
	Idle              State = iota // empty query, every document listed
	TitleFiltered                  // title matches published, deep search scheduled
	DeepSearchPending              // bodies being fetched
	DeepSearchSettled              // title and content matches published
)

func (s State) String() string {
	switch s {
	case TitleFiltered:
		return "title-filtered"
	case DeepSearchPending:
		return "deep-search-pending"
	case DeepSearchSettled:
		return "deep-search-settled"
	}
	return "idle"
}

// Result is a snapshot of the visible search result.
type Result struct {
	Query      string // normalized
	State      State
	Documents  []*library.Document
	Generation uint64 // bumped on every Search call
}

// The searcher the ui talks to.
type Searcher interface {
	Search(query string) []*library.Document // Title phase result, deep search runs later.
	Current() Result                          // Latest visible result.
	Changes() <-chan Result                   // Latest result whenever it changes.
	Close()                                   // Stop pending and in-flight work.
}
