package fetch

import (
	"context"
	"sync"
)

// State is a snapshot of a Task.
type State[T any] struct {
	Key     string
	Loading bool
	Loaded  bool
	Err     error
	Data    T
}

// Task loads one piece of view data. Only the most recent Run may write
// its result; responses from superseded runs are discarded.
type Task[T any] struct {
	mu    sync.Mutex
	seq   uint64
	state State[T]
}

// Run marks the task loading for key and calls fn. It reports whether the
// result was applied. The error from fn is returned either way.
func (t *Task[T]) Run(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (bool, error) {
	t.mu.Lock()
	t.seq++
	ticket := t.seq
	if t.state.Key != key {
		var zero T
		t.state.Data = zero
		t.state.Loaded = false
	}
	t.state.Key = key
	t.state.Loading = true
	t.state.Err = nil
	t.mu.Unlock()

	data, err := fn(ctx)
	return t.finish(ticket, key, data, err)
}

func (t *Task[T]) finish(ticket uint64, key string, data T, err error) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ticket != t.seq || t.state.Key != key {
		return false, err
	}
	t.state.Loading = false
	if err != nil {
		t.state.Err = err
		return true, err
	}
	t.state.Data = data
	t.state.Loaded = true
	return true, nil
}

// Supersede invalidates any in-flight Run, as on unmount or navigation.
func (t *Task[T]) Supersede() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.state.Loading = false
}

// Reset invalidates any in-flight Run and points the task at key with no
// data, as when a screen navigates to another item.
func (t *Task[T]) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	var zero T
	t.state = State[T]{Key: key, Data: zero}
}

// Reload is Run for data already shown under key. It does nothing and
// reports false when the task has moved on to another key.
func (t *Task[T]) Reload(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (bool, error) {
	t.mu.Lock()
	if t.state.Key != key {
		t.mu.Unlock()
		return false, nil
	}
	t.seq++
	ticket := t.seq
	t.state.Loading = true
	t.state.Err = nil
	t.mu.Unlock()

	data, err := fn(ctx)
	return t.finish(ticket, key, data, err)
}

// Set replaces the data directly, for local edits that follow a load.
func (t *Task[T]) Set(data T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Data = data
	t.state.Loaded = true
}

// DismissError clears the last error without touching the data.
func (t *Task[T]) DismissError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Err = nil
}

func (t *Task[T]) State() State[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
