package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps entries in a map. Its contents last as long as the
// process, which makes it useful in watch mode and tests.
type MemoryStore struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Get returns a copy of the entry for key.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEntry(e), nil
}

// Put stores a copy of entry.
func (s *MemoryStore) Put(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Key] = copyEntry(entry)
	return nil
}

// Count returns the number of entries.
func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.entries)), nil
}

// DeleteBefore removes entries created before cutoff.
func (s *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, e := range s.entries {
		if e.CreatedAt.Before(cutoff) {
			delete(s.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteOldest removes up to n entries, oldest first.
func (s *MemoryStore) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if n > int64(len(all)) {
		n = int64(len(all))
	}
	for _, e := range all[:n] {
		delete(s.entries, e.Key)
	}
	return n, nil
}

// Backend returns "memory".
func (s *MemoryStore) Backend() string {
	return BackendMemory
}

// Close discards all entries.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry)
	return nil
}

func copyEntry(e *Entry) *Entry {
	c := *e
	c.Payload = append([]byte(nil), e.Payload...)
	return &c
}
