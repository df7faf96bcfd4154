package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/papers/a.md":
			w.Write([]byte("# Alpha"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewClient(Options{Root: srv.URL + "/papers", Timeout: time.Second})
	require.NoError(t, err)
	assert.True(t, c.Remote())

	body, err := c.Fetch(context.Background(), "a.md")
	require.NoError(t, err)
	assert.Equal(t, "# Alpha", body)

	body, err = c.Fetch(context.Background(), srv.URL+"/papers/a.md")
	require.NoError(t, err)
	assert.Equal(t, "# Alpha", body)

	_, err = c.Fetch(context.Background(), "missing.md")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "missing.md", fe.Path)
	assert.Equal(t, http.StatusNotFound, fe.Status)
}

func TestClient_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "papers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "papers", "b.md"), []byte("beta body"), 0o644))

	c, err := NewClient(Options{Root: dir})
	require.NoError(t, err)
	assert.False(t, c.Remote())

	body, err := c.Fetch(context.Background(), "papers/b.md")
	require.NoError(t, err)
	assert.Equal(t, "beta body", body)

	local, ok := c.LocalPath("papers/b.md")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "papers", "b.md"), local)

	_, err = c.Fetch(context.Background(), "papers/none.md")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = c.Fetch(context.Background(), "data:text/plain,hi")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestClient_DirectoryStaysInsideRoot(t *testing.T) {
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("top secret"), 0o644))
	root := filepath.Join(outside, "shelf")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "papers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("alpha"), 0o644))

	c, err := NewClient(Options{Root: root})
	require.NoError(t, err)

	for _, p := range []string{"../secret.txt", "papers/../../secret.txt", "..", "./../shelf/../secret.txt"} {
		body, err := c.Fetch(context.Background(), p)
		assert.ErrorIs(t, err, ErrOutsideRoot, p)
		assert.Empty(t, body, p)

		_, ok := c.LocalPath(p)
		assert.False(t, ok, p)
	}

	body, err := c.Fetch(context.Background(), "papers/../a.md")
	require.NoError(t, err)
	assert.Equal(t, "alpha", body)

	body, err = c.Fetch(context.Background(), "/../a.md")
	require.NoError(t, err)
	assert.Equal(t, "alpha", body)
}

func TestClient_CoalescesConcurrentFetches(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte("shared"))
	}))
	defer srv.Close()

	c, err := NewClient(Options{Root: srv.URL})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Fetch(context.Background(), "same.md")
		}(i)
	}

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestClient_CancelledCallerReturnsEarly(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("late"))
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Options{Root: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx, "slow.md")
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("fetch did not return after cancel")
	}
}
