package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of a single document is read.
const maxBodySize = 32 << 20

var (
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrOutsideRoot       = errors.New("path outside root")
)

// Options configures a Client.
type Options struct {
	Root    string        // base URL (http/https) or local directory
	Timeout time.Duration // per request, HTTP only
	Rate    float64       // requests per second, 0 means unlimited
	Logger  *log.Logger
}

// Client fetches documents relative to a root. Concurrent fetches of the
// same path share one request.
type Client struct {
	base    *url.URL // nil when reading from a directory
	dir     string
	http    *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	logger  *log.Logger
}

// NewClient returns a client for opts.Root.
func NewClient(opts Options) (*Client, error) {
	c := &Client{
		http:   &http.Client{Timeout: opts.Timeout},
		logger: opts.Logger,
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if opts.Rate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	root := strings.TrimSpace(opts.Root)
	if isHTTP(root) {
		u, err := url.Parse(root)
		if err != nil {
			return nil, fmt.Errorf("invalid root url %q: %w", root, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.base = u
		return c, nil
	}

	if root == "" {
		root = "."
	}
	c.dir = root
	return c, nil
}

// Remote reports whether the client reads from a URL.
func (c *Client) Remote() bool {
	return c.base != nil
}

// LocalPath returns the file a relative document path maps to when the
// client reads from a directory. Paths that climb out of the directory have
// no local file.
func (c *Client) LocalPath(p string) (string, bool) {
	if c.base != nil || isHTTP(p) || hasScheme(p) || !insideRoot(p) {
		return "", false
	}
	return filepath.Join(c.dir, filepath.FromSlash(p)), true
}

// Fetch returns the body of the document at p. A cancelled ctx makes this
// caller return early; the shared request keeps going for other callers.
func (c *Client) Fetch(ctx context.Context, p string) (string, error) {
	ch := c.group.DoChan(p, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), p)
	})

	select {
	case <-ctx.Done():
		return "", &FetchError{Path: p, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) fetch(ctx context.Context, p string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &FetchError{Path: p, Err: err}
		}
	}

	if isHTTP(p) {
		return c.get(ctx, p, p)
	}
	if c.base != nil {
		ref, err := url.Parse(p)
		if err != nil {
			return "", &FetchError{Path: p, Err: err}
		}
		return c.get(ctx, p, c.base.ResolveReference(ref).String())
	}

	if !insideRoot(p) {
		return "", &FetchError{Path: p, Err: ErrOutsideRoot}
	}
	local, ok := c.LocalPath(p)
	if !ok {
		return "", &FetchError{Path: p, Err: ErrUnsupportedScheme}
	}
	data, err := os.ReadFile(local)
	if err != nil {
		return "", &FetchError{Path: p, Err: err}
	}
	c.logger.Debug("read document", "path", p, "bytes", len(data))
	return string(data), nil
}

func (c *Client) get(ctx context.Context, p, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &FetchError{Path: p, Err: err}
	}
	req.Header.Set("User-Agent", "papers_search")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &FetchError{Path: p, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{Path: p, Status: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &FetchError{Path: p, Err: err}
	}
	c.logger.Debug("fetched document", "url", target, "bytes", len(data))
	return string(data), nil
}

// insideRoot reports whether p, read relative to the root, stays below it.
// A leading slash counts from the root.
func insideRoot(p string) bool {
	clean := path.Clean(filepath.ToSlash(p))
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

func isHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func hasScheme(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}
