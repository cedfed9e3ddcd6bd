// Package store provides the mutex-guarded lookup tables node state
// needs: the seen-ping/seen-query tables, the originated-message sets,
// and the peer-id-to-address resolution table. It is adapted from the
// teacher's shm sub-tree hash map, narrowed from a two-level Map ->
// subtree -> node structure down to a single generic, typed map, and
// switched from one shared package-level mutex to one mutex per Store
// so that independent tables (pings vs. queries vs. recipients) don't
// serialize against each other.
package store

import "sync"

// Store is a mutex-guarded map. Every method locks for the duration of
// the access, so a caller never observes a torn read or a lost write —
// this is what lets the dispatcher treat "is this message id already
// known" and "record it" as one atomic step (CheckAndSet).
type Store[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// New creates an empty Store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{m: make(map[K]V)}
}

// Get returns the value for k and whether it was present.
func (s *Store[K, V]) Get(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[k]
	return v, ok
}

// Has reports whether k is present.
func (s *Store[K, V]) Has(k K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[k]
	return ok
}

// Set stores v under k, overwriting any existing value.
func (s *Store[K, V]) Set(k K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k] = v
}

// CheckAndSet atomically checks whether k is already present and, if
// not, stores v under it. It returns true if this call performed the
// insert (k was fresh), false if k was already present (and nothing was
// changed). This is the primitive the flood de-duplication logic needs:
// the check and the insert must not be separated by an unlocked window.
func (s *Store[K, V]) CheckAndSet(k K, v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[k]; ok {
		return false
	}
	s.m[k] = v
	return true
}

// Delete removes k, if present.
func (s *Store[K, V]) Delete(k K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, k)
}

// Len returns the number of entries currently stored.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Keys returns a snapshot copy of the stored keys. Taken under lock so
// that the caller iterates a consistent view rather than the live map.
func (s *Store[K, V]) Keys() []K {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]K, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	return keys
}

// Values returns a snapshot copy of the stored values. Taken under lock
// for the same reason as Keys.
func (s *Store[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make([]V, 0, len(s.m))
	for _, v := range s.m {
		values = append(values, v)
	}
	return values
}
