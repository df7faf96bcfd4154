package address

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/noelzubin/papers_search/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLink(t *testing.T) {
	base, err := url.Parse("https://shelf.example.com/?theme=dark&src=old.md")
	require.NoError(t, err)

	doc := library.NewDocument("Alpha Notes", library.Text, "papers/a.md")
	link := Link(base, doc)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "papers/a.md", u.Query().Get("src"))
	assert.Equal(t, "Alpha Notes", u.Query().Get("title"))
	assert.Equal(t, "dark", u.Query().Get("theme"))

	cleared, err := url.Parse(Link(base, nil))
	require.NoError(t, err)
	assert.False(t, cleared.Query().Has("src"))
	assert.False(t, cleared.Query().Has("title"))
	assert.Equal(t, "dark", cleared.Query().Get("theme"))
}

func TestBookmark_PersistsSelection(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state", "bookmark.json")
	b, err := NewBookmark("https://shelf.example.com/", file, nil)
	require.NoError(t, err)
	assert.Empty(t, b.Requested())

	b.Reflect(library.NewDocument("Beta", library.Text, "b.md"))
	assert.Equal(t, "b.md", b.Requested())
	assert.Contains(t, b.Link(), "src=b.md")

	again, err := NewBookmark("https://shelf.example.com/", file, nil)
	require.NoError(t, err)
	assert.Equal(t, "b.md", again.Requested())

	b.Reflect(nil)
	assert.Empty(t, b.Requested())
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))
	assert.NotContains(t, b.Link(), "src=")
}

func TestBookmark_CorruptFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bookmark.json")
	require.NoError(t, os.WriteFile(file, []byte("{nope"), 0o600))

	b, err := NewBookmark("", file, nil)
	require.NoError(t, err)
	assert.Empty(t, b.Requested())
}

func TestSource(t *testing.T) {
	assert.Equal(t, "papers/a.md", Source("https://shelf.example.com/?src=papers%2Fa.md&title=A"))
	assert.Equal(t, "papers/a.md", Source(" papers/a.md "))
	assert.Equal(t, "https://example.com/x.pdf", Source("https://example.com/x.pdf"))
}
