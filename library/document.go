// Package library holds the shelf of documents that can be searched and
// opened: the normalized descriptors and the ordered index over them.
package library

import (
	"net/url"
	"path"
	"strings"
	"sync"
)

// Untitled is the title given to entries that don't have one.
const Untitled = "(untitled)"

// Kind says how a document is displayed.
type Kind int

const (
	Text     Kind = iota // markdown-like, searchable and renderable
	Embedded             // opaque resource shown by a viewer (pdf)
)

func (k Kind) String() string {
	if k == Embedded {
		return "embedded"
	}
	return "text"
}

// ParseKind maps a manifest type to a Kind. Anything that is not a pdf is
// treated as text.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf", "embedded":
		return Embedded
	}
	return Text
}

// KindFromPath infers the kind from the extension, ignoring any query or
// fragment.
func KindFromPath(p string) Kind {
	p = strings.SplitN(p, "?", 2)[0]
	p = strings.SplitN(p, "#", 2)[0]
	if strings.EqualFold(path.Ext(p), ".pdf") {
		return Embedded
	}
	return Text
}

// Resource is the handle an embedded viewer loads.
type Resource struct {
	Path string
	URL  *url.URL // nil when Path is not a valid URL reference
}

// Document describes one item of the shelf. Path is the identity of a
// document; an empty path makes it non-openable.
type Document struct {
	Title string
	Kind  Kind
	Path  string

	resourceOnce sync.Once
	resource     *Resource
}

// NewDocument returns a normalized document.
func NewDocument(title string, kind Kind, path string) *Document {
	if strings.TrimSpace(title) == "" {
		title = Untitled
	}
	return &Document{Title: title, Kind: kind, Path: path}
}

// Openable reports whether the document has a path.
func (d *Document) Openable() bool {
	return d != nil && d.Path != ""
}

// Resource returns the memoized resource handle for the document's path.
func (d *Document) Resource() *Resource {
	d.resourceOnce.Do(func() {
		r := &Resource{Path: d.Path}
		if u, err := url.Parse(d.Path); err == nil {
			r.URL = u
		}
		d.resource = r
	})
	return d.resource
}

// FilterValue implements list.Item so documents can go straight into a
// bubbles list.
func (d *Document) FilterValue() string { return d.Title }
