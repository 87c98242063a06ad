package history

import (
	"context"
	"sync"
)

// MemoryStore keeps entries for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[Kind][]Entry
	counters map[Kind]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[Kind][]Entry),
		counters: make(map[Kind]int64),
	}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Kind] = append(s.entries[entry.Kind], entry)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, kind Kind) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries[kind]))
	copy(out, s.entries[kind])
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, kind)
	return nil
}

func (s *MemoryStore) Increment(_ context.Context, kind Kind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[kind]++
	return s.counters[kind], nil
}

func (s *MemoryStore) Counter(_ context.Context, kind Kind) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[kind], nil
}

func (s *MemoryStore) Close() error { return nil }
