package fetch

import (
	"context"
	"sync"
)

// Mutation shows a value before the server confirms it and falls back to
// the last confirmed value if the commit fails.
type Mutation[T any] struct {
	mu        sync.Mutex
	seq       uint64
	confirmed T
	shown     T
	pending   bool
}

func NewMutation[T any](initial T) *Mutation[T] {
	return &Mutation[T]{confirmed: initial, shown: initial}
}

// Apply shows value immediately and calls commit. commit returns the value
// the server settled on. A failed commit restores the confirmed value
// unless a newer Apply has started since.
func (m *Mutation[T]) Apply(ctx context.Context, value T, commit func(ctx context.Context, value T) (T, error)) error {
	m.mu.Lock()
	m.seq++
	ticket := m.seq
	m.shown = value
	m.pending = true
	m.mu.Unlock()

	settled, err := commit(ctx, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	latest := ticket == m.seq
	if err != nil {
		if latest {
			m.shown = m.confirmed
			m.pending = false
		}
		return err
	}
	m.confirmed = settled
	if latest {
		m.shown = settled
		m.pending = false
	}
	return nil
}

// Confirm records a value loaded from the server.
func (m *Mutation[T]) Confirm(value T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.confirmed = value
	m.shown = value
	m.pending = false
}

// Value is what the view should display.
func (m *Mutation[T]) Value() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown
}

func (m *Mutation[T]) Confirmed() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmed
}

func (m *Mutation[T]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}
