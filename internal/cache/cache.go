// Package cache provides a memoizing store for computed results, keyed
// by a deterministic fingerprint. Concurrent requests for one key share
// a single in-flight computation, entries expire after a TTL, and a
// failed computation is never cached.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// Store memoizes values of type V. The zero value is not usable; use New.
type Store[V any] struct {
	name string
	ttl  time.Duration

	mu      sync.Mutex
	entries map[string]entry[V]

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// New returns a store named for metrics, whose entries live for ttl.
func New[V any](name string, ttl time.Duration) *Store[V] {
	return &Store[V]{
		name:    name,
		ttl:     ttl,
		entries: make(map[string]entry[V]),
	}
}

// GetOrCompute returns the cached value for key, or runs produce and
// caches its result. At most one produce runs per key at a time; callers
// arriving while one is in flight share its outcome. A produce error is
// returned to every waiter and leaves nothing cached, so the next call
// retries.
func (s *Store[V]) GetOrCompute(key string, produce func() (V, error)) (V, error) {
	if v, ok := s.get(key); ok {
		s.hits.Add(1)
		return v, nil
	}
	s.misses.Add(1)

	v, err, _ := s.group.Do(key, func() (any, error) {
		// A previous flight may have filled the entry while we waited
		// for the singleflight lock.
		if v, ok := s.get(key); ok {
			return v, nil
		}
		v, err := produce()
		if err != nil {
			return nil, err
		}
		s.put(key, v)
		return v, nil
	})
	if err != nil {
		s.group.Forget(key)
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Evict drops the entry for key, if any.
func (s *Store[V]) Evict(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Name returns the store's metrics name.
func (s *Store[V]) Name() string { return s.name }

// Stats returns the lifetime hit and miss counts.
func (s *Store[V]) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Len returns the number of live entries, dropping expired ones.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, k)
		}
	}
	return len(s.entries)
}

func (s *Store[V]) get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.expires) {
		delete(s.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *Store[V]) put(key string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[V]{value: v, expires: time.Now().Add(s.ttl)}
}
