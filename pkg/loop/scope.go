package loop

import (
	"sync"
	"sync/atomic"
)

// Scope tracks the lifetime of the component that owns some local state.
// Callbacks guarded by a disposed scope do nothing, so a mutation that
// settles after its view was torn down cannot touch that view's state.
//
// A nil *Scope is always alive.
type Scope struct {
	disposed atomic.Bool
	mu       sync.Mutex
	cleanups []func()
}

// NewScope creates a live scope.
func NewScope() *Scope {
	return &Scope{}
}

// Alive reports whether the scope has not been disposed.
func (s *Scope) Alive() bool {
	return s == nil || !s.disposed.Load()
}

// OnDispose registers fn to run once when the scope is disposed. If the
// scope is already disposed fn runs immediately.
func (s *Scope) OnDispose(fn func()) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
}

// Dispose marks the scope dead and runs its cleanups in reverse order.
func (s *Scope) Dispose() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.disposed.Swap(true) {
		s.mu.Unlock()
		return
	}
	cleanups := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// Guard wraps fn so that it only runs while the scope is alive.
func (s *Scope) Guard(fn func()) func() {
	return func() {
		if s.Alive() {
			fn()
		}
	}
}
