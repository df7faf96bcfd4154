package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetPut(t *testing.T) {
	s := New[string]()

	assert.False(t, s.Has("a.md"))
	_, ok := s.Get("a.md")
	assert.False(t, ok)

	s.Put("a.md", "body")
	require.True(t, s.Has("a.md"))
	v, ok := s.Get("a.md")
	require.True(t, ok)
	assert.Equal(t, "body", v)
	assert.Equal(t, 1, s.Len())
}

func TestStore_EmptyValueIsPresent(t *testing.T) {
	s := New[string]()
	s.Put("broken.md", "")

	assert.True(t, s.Has("broken.md"))
	v, ok := s.Get("broken.md")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestStore_ConcurrentSameKey(t *testing.T) {
	s := New[string]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Put("shared.md", "same text")
		}()
		go func(i int) {
			defer wg.Done()
			s.Put(fmt.Sprintf("doc-%d.md", i), "x")
			s.Has("shared.md")
		}(i)
	}
	wg.Wait()

	v, ok := s.Get("shared.md")
	require.True(t, ok)
	assert.Equal(t, "same text", v)
	assert.Equal(t, 51, s.Len())
}
