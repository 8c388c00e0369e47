package results

import (
	"sync"
)

// Store is an append-only, concurrency-safe collection of outcomes.
type Store struct {
	mu    sync.RWMutex
	items Set
}

func NewStore(capacity int) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{items: make(Set, 0, capacity)}
}

func (s *Store) Append(o Outcome) {
	s.mu.Lock()
	s.items = append(s.items, o)
	s.mu.Unlock()
}

// Snapshot returns a copy of everything appended so far.
func (s *Store) Snapshot() Set {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make(Set, len(s.items))
	copy(res, s.items)
	return res
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
