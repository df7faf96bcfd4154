// Package render turns raw markdown into displayable, sanitized output.
package render

import (
	"bytes"
	"html"
	"io"
	"sync"

	"github.com/acarl005/stripansi"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Renderer converts raw document text to displayable output. It never fails:
// when the markdown can't be rendered the text is shown as is.
type Renderer interface {
	Render(text string) string
}

// Terminal renders markdown for a terminal with glamour.
type Terminal struct {
	mu     sync.Mutex
	tr     *glamour.TermRenderer
	logger *log.Logger
}

// NewTerminal returns a renderer using one of glamour's standard styles
// ("dark", "light", "notty") wrapped at wrap columns.
func NewTerminal(style string, wrap int, logger *log.Logger) (*Terminal, error) {
	if style == "" {
		style = "dark"
	}
	if wrap <= 0 {
		wrap = 80
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil, err
	}
	return &Terminal{tr: tr, logger: logger}, nil
}

// Render strips escape sequences from text, so a document can't drive the
// terminal, and renders what's left.
func (t *Terminal) Render(text string) string {
	clean := stripansi.Strip(text)

	t.mu.Lock()
	out, err := t.tr.Render(clean)
	t.mu.Unlock()
	if err != nil {
		t.logger.Warn("markdown render failed", "err", err)
		return clean
	}
	return out
}

// HTML renders markdown to sanitized HTML.
type HTML struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	logger *log.Logger
}

func NewHTML(logger *log.Logger) *HTML {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &HTML{
		md:     goldmark.New(),
		policy: bluemonday.UGCPolicy(),
		logger: logger,
	}
}

func (h *HTML) Render(text string) string {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(text), &buf); err != nil {
		h.logger.Warn("markdown render failed", "err", err)
		return "<pre>" + html.EscapeString(text) + "</pre>"
	}
	return h.policy.Sanitize(buf.String())
}
