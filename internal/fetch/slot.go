// Package fetch holds state that is refreshed by independent, possibly
// overlapping requests. Each request is tagged with a sequence number when it
// is issued; a response is applied only if nothing newer has been applied.
package fetch

import "sync"

// Slot is one independently refreshed piece of state.
type Slot[T any] struct {
	mu      sync.RWMutex
	value   T
	loaded  bool
	issued  uint64
	applied uint64
}

// Begin issues the sequence number for a new request.
func (s *Slot[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply stores v if seq is newer than the last applied sequence.
// It reports whether v was stored.
func (s *Slot[T]) Apply(seq uint64, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	s.value = v
	s.loaded = true
	return true
}

// Get returns the current value and whether any response was applied.
func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.loaded
}

// Reset drops the value and every response still in flight.
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value = zero
	s.loaded = false
	s.applied = s.issued
}
