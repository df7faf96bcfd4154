// Package app wires the shelf, search, viewer and their collaborators into a
// session.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/noelzubin/papers_search/address"
	"github.com/noelzubin/papers_search/cache"
	"github.com/noelzubin/papers_search/library"
	"github.com/noelzubin/papers_search/render"
	"github.com/noelzubin/papers_search/search"
	"github.com/noelzubin/papers_search/transport"
	"github.com/noelzubin/papers_search/utils"
	"github.com/noelzubin/papers_search/viewer"
	"github.com/spf13/viper"
)

var ErrNoManifest = errors.New("a remote root needs a manifest")

// Options configures a Session. Only Config is required.
type Options struct {
	Config   *utils.Config
	Viper    *viper.Viper
	Logger   *log.Logger
	Fetcher  transport.Fetcher // defaults to a transport.Client on Config.Root
	Renderer render.Renderer   // defaults to a terminal renderer in the configured theme
	Clock    search.Clock
}

// Session is one running shelf.
type Session struct {
	Config   *utils.Config
	Index    *library.Index
	Contents *cache.Store[string]
	Search   *search.Scheduler
	Viewer   *viewer.Controller
	Bookmark *address.Bookmark
	Prefs    *utils.Preferences
	Logger   *log.Logger

	client *transport.Client
}

// New loads the shelf and builds the session.
func New(ctx context.Context, opts Options) (*Session, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	v := opts.Viper
	if v == nil {
		v = viper.New()
		v.Set("theme", cfg.Theme)
	}

	s := &Session{
		Config:   cfg,
		Contents: cache.New[string](),
		Prefs:    utils.NewPreferences(v),
		Logger:   logger,
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		client, err := transport.NewClient(transport.Options{
			Root:    cfg.Root,
			Timeout: cfg.FetchTimeout,
			Rate:    cfg.FetchRate,
			Logger:  logger.With("component", "transport"),
		})
		if err != nil {
			return nil, err
		}
		s.client = client
		fetcher = client
	}

	docs, err := s.loadShelf(ctx, fetcher)
	if err != nil {
		return nil, err
	}
	s.Index = library.NewIndex(docs)
	logger.Info("shelf loaded", "root", cfg.Root, "manifest", cfg.Manifest, "documents", s.Index.Len())

	renderer := opts.Renderer
	if renderer == nil {
		renderer, err = render.NewTerminal(s.Prefs.Theme(), cfg.Wrap, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create renderer: %w", err)
		}
	}

	s.Bookmark, err = address.NewBookmark(cfg.ShareBase, cfg.BookmarkFile, logger)
	if err != nil {
		return nil, err
	}

	s.Search = search.NewScheduler(s.Index, s.Contents, fetcher, search.Options{
		Delay:       cfg.SearchDelay,
		Concurrency: cfg.FetchConcurrency,
		Clock:       opts.Clock,
		Logger:      logger.With("component", "search"),
	})
	s.Viewer = viewer.NewController(s.Contents, fetcher, renderer, viewer.Options{
		Reflector: s.Bookmark,
		Logger:    logger.With("component", "viewer"),
	})

	return s, nil
}

func (s *Session) loadShelf(ctx context.Context, fetcher transport.Fetcher) ([]*library.Document, error) {
	if s.Config.Manifest != "" {
		data, err := fetcher.Fetch(ctx, s.Config.Manifest)
		if err != nil {
			return nil, fmt.Errorf("failed to load manifest: %w", err)
		}
		return library.ParseManifest([]byte(data))
	}

	if s.client != nil && s.client.Remote() {
		return nil, ErrNoManifest
	}
	docs, err := library.Scan(os.DirFS(s.Config.Root), s.Config.Extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.Config.Root, err)
	}
	return docs, nil
}

// Start opens the first document. A requested path (from the command line
// or the bookmark of the previous run) wins over the first manifest entry.
func (s *Session) Start(requested string) {
	if requested == "" {
		requested = s.Bookmark.Requested()
	}
	if requested != "" {
		if doc, ok := s.Index.Lookup(requested); ok {
			s.Viewer.Open(doc)
			return
		}
		s.Viewer.OpenURL(requested)
		return
	}
	if first := s.Index.First(); first != nil {
		s.Viewer.Open(first)
	}
}

// LocalPath returns the file behind doc when documents come from a
// directory.
func (s *Session) LocalPath(doc *library.Document) (string, bool) {
	if s.client == nil || !doc.Openable() {
		return "", false
	}
	return s.client.LocalPath(doc.Path)
}

// ToggleTheme switches between light and dark and re-renders with the new
// theme. The theme is applied even if it could not be saved.
func (s *Session) ToggleTheme() (string, error) {
	theme, saveErr := s.Prefs.ToggleTheme()
	if saveErr != nil {
		s.Logger.Warn("failed to save theme", "err", saveErr)
	}
	r, err := render.NewTerminal(theme, s.Config.Wrap, s.Logger)
	if err != nil {
		return theme, err
	}
	s.Viewer.SetRenderer(r)
	return theme, saveErr
}

// Close stops background work.
func (s *Session) Close() {
	s.Search.Close()
	s.Viewer.Close()
}
