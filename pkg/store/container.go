package store

import (
	"context"
	"sort"
	"sync"
)

// Container is a named key/value map whose mutations are durable only after Commit
type Container interface {
	Name() string
	// Get returns the staged value for key, falling back to the committed one
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Remove(key string)
	// List returns every live key in ascending order
	List() []string
	// Commit makes all staged mutations durable as one unit
	Commit(ctx context.Context) error
}

// mutation is a staged write or removal
type mutation struct {
	value   []byte
	deleted bool
}

// staging holds the committed view plus pending mutations. It is shared
// by the SQLite and in-memory containers.
type staging struct {
	name      string
	mu        sync.Mutex
	committed map[string][]byte
	pending   map[string]mutation
	order     []string
}

func newStaging(name string, committed map[string][]byte) *staging {
	if committed == nil {
		committed = make(map[string][]byte)
	}
	return &staging{
		name:      name,
		committed: committed,
		pending:   make(map[string]mutation),
	}
}

func (s *staging) Name() string {
	return s.name
}

func (s *staging) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.pending[key]; ok {
		if m.deleted {
			return nil, false
		}
		return clone(m.value), true
	}
	v, ok := s.committed[key]
	return clone(v), ok
}

func (s *staging) Set(key string, value []byte) {
	s.stage(key, mutation{value: append([]byte{}, value...)})
}

func (s *staging) Remove(key string) {
	s.stage(key, mutation{deleted: true})
}

func (s *staging) stage(key string, m mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[key]; !ok {
		s.order = append(s.order, key)
	}
	s.pending[key] = m
}

func (s *staging) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.committed)+len(s.pending))
	for k := range s.committed {
		if m, ok := s.pending[k]; ok && m.deleted {
			continue
		}
		keys = append(keys, k)
	}
	for k, m := range s.pending {
		if _, ok := s.committed[k]; ok || m.deleted {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// snapshot returns the pending mutations in staging order
func (s *staging) snapshot() ([]string, map[string]mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := append([]string(nil), s.order...)
	pending := make(map[string]mutation, len(s.pending))
	for k, m := range s.pending {
		pending[k] = m
	}
	return order, pending
}

// promote moves the given mutations into the committed view. Mutations
// staged after the snapshot was taken stay pending.
func (s *staging) promote(order []string, applied map[string]mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range order {
		m := applied[k]
		if m.deleted {
			delete(s.committed, k)
		} else {
			s.committed[k] = m.value
		}
		if cur, ok := s.pending[k]; ok && sameMutation(cur, m) {
			delete(s.pending, k)
		}
	}

	remaining := s.order[:0]
	for _, k := range s.order {
		if _, ok := s.pending[k]; ok {
			remaining = append(remaining, k)
		}
	}
	s.order = remaining
}

func sameMutation(a, b mutation) bool {
	if a.deleted != b.deleted || len(a.value) != len(b.value) {
		return false
	}
	for i := range a.value {
		if a.value[i] != b.value[i] {
			return false
		}
	}
	return true
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
