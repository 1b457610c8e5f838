package store

import (
	"context"
)

// Memory is an in-process Container with the same staging semantics as
// the SQLite container. Committed values are lost when the process exits.
type Memory struct {
	*staging

	// FailCommit, when set, is returned by Commit and nothing is promoted
	FailCommit error
	commits    int
}

// NewMemory creates an empty in-memory container
func NewMemory(name string) *Memory {
	return &Memory{staging: newStaging(name, nil)}
}

// Commit promotes all staged mutations
func (m *Memory) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailCommit != nil {
		return m.FailCommit
	}
	order, pending := m.snapshot()
	m.promote(order, pending)

	m.mu.Lock()
	m.commits++
	m.mu.Unlock()
	return nil
}

// Committed returns a copy of the durable view, ignoring staged mutations
func (m *Memory) Committed() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]byte, len(m.committed))
	for k, v := range m.committed {
		out[k] = clone(v)
	}
	return out
}

// Commits returns how many times Commit succeeded
func (m *Memory) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}
