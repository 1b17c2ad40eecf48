// Package views holds the state behind each screen: what is loading, what
// failed and what to show. Controllers talk to the backend through narrow
// interfaces and keep only normalized records.
package views

import (
	"sync"
)

// Phase is the load state of one piece of a view.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseSuccess Phase = "success"
)

// Resource is one independently loaded piece of a view. Err is the
// user-facing message when Phase is PhaseError.
type Resource[T any] struct {
	Phase Phase
	Data  T
	Err   string
}

func loading[T any]() Resource[T] {
	return Resource[T]{Phase: PhaseLoading}
}

func loaded[T any](data T) Resource[T] {
	return Resource[T]{Phase: PhaseSuccess, Data: data}
}

func failed[T any](msg string) Resource[T] {
	return Resource[T]{Phase: PhaseError, Err: msg}
}

// mount guards view state against updates that arrive after the view is
// closed. Requests already in flight are not aborted; their results are dropped.
type mount struct {
	mu     sync.Mutex
	closed bool
}

// Close marks the view as gone.
func (m *mount) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// update runs fn under the lock unless the view is closed. It reports whether fn ran.
func (m *mount) update(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	fn()
	return true
}

// read runs fn under the lock regardless of the mount state.
func (m *mount) read(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}
