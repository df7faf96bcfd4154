// Package viewer tracks the selected document and loads it for display.
package viewer

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/noelzubin/papers_search/address"
	"github.com/noelzubin/papers_search/cache"
	"github.com/noelzubin/papers_search/library"
	"github.com/noelzubin/papers_search/render"
	"github.com/noelzubin/papers_search/transport"
)

var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrUnsafeURL        = errors.New("unsafe url")
)

// Placeholders shown instead of a document.
const (
	LoadingText = "Loading..."
	InvalidText = "Invalid item."
	FailedText  = "Failed to load document."
	UnsafeText  = "Refused to load unsafe URL."
)

// Status of the display.
type Status int

const (
	Idle     Status = iota // nothing opened yet
	Loading                // fetch in flight
	Rendered               // Content holds the rendered document
	Embedded               // viewer should load Resource
	Invalid                // no document or no path
	Failed                 // fetch failed
	Unsafe                 // URL refused
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Rendered:
		return "rendered"
	case Embedded:
		return "embedded"
	case Invalid:
		return "invalid"
	case Failed:
		return "failed"
	case Unsafe:
		return "unsafe"
	}
	return "unknown"
}

// Display is what the viewer shows.
type Display struct {
	Status   Status
	Document *library.Document
	Content  string            // rendered output or placeholder text
	Resource *library.Resource // set for Embedded
	Err      error
}

// Options configures a Controller.
type Options struct {
	// Reflector is called with the controller lock held and must not call
	// back into the controller.
	Reflector address.Reflector
	Logger    *log.Logger
}

// Controller opens documents. Fetches are never cancelled when the selection
// changes; instead a completed load only reaches the display if its path is
// still the current selection.
type Controller struct {
	contents  *cache.Store[string]
	fetcher   transport.Fetcher
	reflector address.Reflector
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc

	mu       sync.Mutex
	renderer render.Renderer
	rendered *cache.Store[string]
	current  *library.Document
	display  Display
	pending  map[string]bool
	closed   bool
	changes  chan Display
	loads    sync.WaitGroup
}

// NewController returns a controller sharing contents with the search
// scheduler.
func NewController(contents *cache.Store[string], fetcher transport.Fetcher, renderer render.Renderer, opts Options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		contents:  contents,
		fetcher:   fetcher,
		reflector: opts.Reflector,
		logger:    opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
		renderer:  renderer,
		rendered:  cache.New[string](),
		pending:   make(map[string]bool),
		changes:   make(chan Display, 1),
	}
	if c.reflector == nil {
		c.reflector = address.ReflectorFunc(func(*library.Document) {})
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Open selects doc and returns what is displayed right away. Text documents
// missing from the cache come back as Loading; the final display arrives on
// Changes.
func (c *Controller) Open(doc *library.Document) Display {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !doc.Openable() {
		c.current = nil
		c.reflector.Reflect(nil)
		return c.publishLocked(Display{Status: Invalid, Document: doc, Content: InvalidText, Err: ErrInvalidSelection})
	}

	c.current = doc

	if doc.Kind == library.Embedded {
		c.reflector.Reflect(doc)
		return c.publishLocked(Display{Status: Embedded, Document: doc, Resource: doc.Resource()})
	}

	if out, ok := c.renderLocked(doc.Path); ok {
		c.reflector.Reflect(doc)
		return c.publishLocked(Display{Status: Rendered, Document: doc, Content: out})
	}

	d := c.publishLocked(Display{Status: Loading, Document: doc, Content: LoadingText})
	if !c.pending[doc.Path] && !c.closed {
		c.pending[doc.Path] = true
		c.loads.Add(1)
		go c.load(doc)
	}
	return d
}

// OpenURL opens src directly, without it being in the manifest. URLs with a
// scheme other than http(s) are refused and leave the selection alone.
func (c *Controller) OpenURL(src string) Display {
	src = strings.TrimSpace(src)
	if src == "" {
		return c.Open(nil)
	}
	if err := CheckURL(src); err != nil {
		c.logger.Warn("refusing to open url", "src", src, "err", err)
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.publishLocked(Display{Status: Unsafe, Content: UnsafeText, Err: err})
	}
	return c.Open(library.NewDocument(titleFromURL(src), library.KindFromPath(src), src))
}

// Display returns what is currently shown.
func (c *Controller) Display() Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

// Current returns the selected document.
func (c *Controller) Current() *library.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Changes delivers the latest display whenever it changes.
func (c *Controller) Changes() <-chan Display {
	return c.changes
}

// SetRenderer swaps the renderer, drops everything rendered with the old one
// and re-renders the displayed document.
func (c *Controller) SetRenderer(r render.Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.renderer = r
	c.rendered = cache.New[string]()

	if c.display.Status != Rendered || !c.display.Document.Openable() {
		return
	}
	if out, ok := c.renderLocked(c.display.Document.Path); ok {
		d := c.display
		d.Content = out
		c.publishLocked(d)
	}
}

// Close abandons in-flight loads and waits for them to return.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.loads.Wait()
}

func (c *Controller) load(doc *library.Document) {
	defer c.loads.Done()

	text, err := c.fetcher.Fetch(c.ctx, doc.Path)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, doc.Path)

	if c.closed {
		return
	}
	current := c.current != nil && c.current.Path == doc.Path

	if err != nil {
		c.logger.Warn("failed to load document", "path", doc.Path, "err", err)
		if current {
			c.reflector.Reflect(nil)
			c.publishLocked(Display{Status: Failed, Document: doc, Content: FailedText, Err: err})
		}
		return
	}

	c.contents.Put(doc.Path, text)
	out, _ := c.renderLocked(doc.Path)

	if !current {
		c.logger.Debug("discarding load for deselected document", "path", doc.Path)
		return
	}
	c.reflector.Reflect(c.current)
	c.publishLocked(Display{Status: Rendered, Document: c.current, Content: out})
}

// renderLocked returns the rendered output for path, rendering and caching it
// from the content cache if needed.
func (c *Controller) renderLocked(path string) (string, bool) {
	if out, ok := c.rendered.Get(path); ok {
		return out, true
	}
	text, ok := c.contents.Get(path)
	if !ok {
		return "", false
	}
	out := c.renderer.Render(text)
	c.rendered.Put(path, out)
	return out, true
}

func (c *Controller) publishLocked(d Display) Display {
	c.display = d
	select {
	case <-c.changes:
	default:
	}
	select {
	case c.changes <- d:
	default:
	}
	return d
}
