package viewer

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// CheckURL accepts http(s) URLs and relative references and rejects every
// other scheme (file:, blob:, data:, javascript:, ...). A relative reference
// must not climb above the root with "..".
func CheckURL(src string) error {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return nil
	case "":
		if u.Host == "" {
			if p := path.Clean(u.Path); p == ".." || strings.HasPrefix(p, "../") {
				return fmt.Errorf("%w: %q leaves the root", ErrUnsafeURL, src)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: scheme %q", ErrUnsafeURL, u.Scheme)
}

// titleFromURL names a document opened by URL after its last path segment.
func titleFromURL(src string) string {
	u, err := url.Parse(src)
	if err != nil || u.Path == "" {
		return src
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return src
	}
	return base
}
