package library

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"
)

// Scan builds a shelf from the files under fsys whose extension is one of
// extensions. Used when there is no manifest.
func Scan(fsys fs.FS, extensions []string) ([]*Document, error) {
	var paths []string
	for _, ext := range extensions {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), "*")
		if ext == "" {
			continue
		}
		matches, err := doublestar.Glob(fsys, "**/*"+ext)
		if err != nil {
			return nil, fmt.Errorf("failed to scan for %q: %w", ext, err)
		}
		paths = append(paths, matches...)
	}

	paths = lo.Uniq(paths)
	sort.Strings(paths)

	return lo.Map(paths, func(p string, _ int) *Document {
		base := path.Base(p)
		title := strings.TrimSuffix(base, path.Ext(base))
		return NewDocument(title, KindFromPath(p), p)
	}), nil
}
