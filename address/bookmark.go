// Package address reflects the open document into a shareable link and
// remembers it between runs.
package address

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/noelzubin/papers_search/library"
)

// Reflector is told about every resolved selection. A nil document means
// nothing is selected.
type Reflector interface {
	Reflect(doc *library.Document)
}

// ReflectorFunc adapts a function to a Reflector.
type ReflectorFunc func(doc *library.Document)

func (f ReflectorFunc) Reflect(doc *library.Document) { f(doc) }

type state struct {
	Src   string `json:"src"`
	Title string `json:"title,omitempty"`
}

// Bookmark keeps a `?src=...&title=...` link for the selected document and,
// when file is set, persists it so the next run reopens the same document.
type Bookmark struct {
	base   *url.URL
	file   string
	logger *log.Logger

	mu   sync.Mutex
	link string
}

// NewBookmark returns a bookmark building links on shareBase. An empty file
// keeps everything in memory.
func NewBookmark(shareBase, file string, logger *log.Logger) (*Bookmark, error) {
	base, err := url.Parse(shareBase)
	if err != nil {
		return nil, fmt.Errorf("invalid share base %q: %w", shareBase, err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bookmark{base: base, file: file, logger: logger}, nil
}

// Link builds the shareable link for doc on base. Returns base without
// document parameters for nil.
func Link(base *url.URL, doc *library.Document) string {
	u := *base
	q := u.Query()
	q.Del("src")
	q.Del("title")
	if doc.Openable() {
		q.Set("src", doc.Path)
		if doc.Title != "" {
			q.Set("title", doc.Title)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Reflect updates the link and the persisted state.
func (b *Bookmark) Reflect(doc *library.Document) {
	link := Link(b.base, doc)

	b.mu.Lock()
	b.link = link
	b.mu.Unlock()

	if err := b.save(doc); err != nil {
		b.logger.Warn("failed to save bookmark", "file", b.file, "err", err)
	}
}

// Link returns the link for the current selection.
func (b *Bookmark) Link() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.link == "" {
		return Link(b.base, nil)
	}
	return b.link
}

// Requested returns the document path remembered from a previous run, or ""
// if there is none.
func (b *Bookmark) Requested() string {
	if b.file == "" {
		return ""
	}
	data, err := os.ReadFile(b.file)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("failed to read bookmark", "file", b.file, "err", err)
		}
		return ""
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		b.logger.Warn("ignoring corrupt bookmark", "file", b.file, "err", err)
		return ""
	}
	return st.Src
}

// Source extracts the document path from a shared link. Anything that isn't a
// link carrying a src parameter is returned unchanged.
func Source(s string) string {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	if src := u.Query().Get("src"); src != "" {
		return src
	}
	return s
}

func (b *Bookmark) save(doc *library.Document) error {
	if b.file == "" {
		return nil
	}
	if !doc.Openable() {
		err := os.Remove(b.file)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	data, err := json.Marshal(state{Src: doc.Path, Title: doc.Title})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.file), 0o700); err != nil {
		return err
	}
	return os.WriteFile(b.file, data, 0o600)
}
