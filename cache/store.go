package cache

import "sync"

// Store is a memoized key/value store keyed by document path.
//
// Entries are never evicted or invalidated. Writing the same key twice is
// safe; the last write wins, which is fine because every writer stores the
// value fetched for that path.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

// New returns an empty store.
func New[V any]() *Store[V] {
	return &Store[V]{entries: make(map[string]V)}
}

// Has reports whether a value was ever stored for key.
func (s *Store[V]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}

// Get returns the value for key. ok is false if nothing was stored yet.
func (s *Store[V]) Get(key string) (value V, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok = s.entries[key]
	return value, ok
}

// Put stores value under key.
func (s *Store[V]) Put(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
