package cache

import (
	"context"
	"fmt"
	"sync"
)

// State represents the current state of a view handle.
type State int

const (
	Pending State = iota // Initial state, before first load
	Loading              // Load in progress
	Ready                // Data successfully loaded
	Error                // Load failed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// View is a typed, subscribed handle on one cached key. It follows the
// store: when the key is refetched after an invalidation, the view's data is
// replaced.
type View[T any] struct {
	r   Reader
	key Key
	sub *Subscription

	mu       sync.Mutex
	state    State
	data     T
	err      error
	stale    bool
	onChange func(T)
}

// Watch subscribes to key and returns a view over it. The view starts
// Pending (or Ready, when the store already holds a fresh value) and does
// not fetch until Load is called.
func Watch[T any](r Reader, key Key) *View[T] {
	v := &View[T]{r: r, key: key}
	if entry, ok := r.Get(key); ok {
		v.apply(entry)
	}
	v.sub = r.Subscribe(key, v.apply)
	return v
}

// Key returns the viewed key.
func (v *View[T]) Key() Key {
	return v.key
}

// Load fetches the view through the store, honoring staleness.
func (v *View[T]) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.state != Ready {
		v.state = Loading
	}
	v.mu.Unlock()

	entry, err := v.r.Fetch(ctx, v.key)
	if err != nil {
		v.mu.Lock()
		v.err = err
		v.state = Error
		v.mu.Unlock()
		return err
	}
	v.apply(entry)
	return nil
}

// OnChange registers a callback run whenever new data arrives.
func (v *View[T]) OnChange(fn func(T)) *View[T] {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
	return v
}

func (v *View[T]) apply(entry Entry) {
	v.mu.Lock()
	v.stale = entry.Stale
	if entry.FetchedAt.IsZero() && entry.Err == nil {
		v.mu.Unlock()
		return
	}
	if entry.Err != nil && entry.Value == nil {
		v.err = entry.Err
		v.state = Error
		v.mu.Unlock()
		return
	}
	data, ok := entry.Value.(T)
	if !ok && entry.Value != nil {
		v.err = fmt.Errorf("cache: %s holds %T", v.key, entry.Value)
		v.state = Error
		v.mu.Unlock()
		return
	}
	v.data = data
	v.err = nil
	v.state = Ready
	fn := v.onChange
	v.mu.Unlock()

	if fn != nil {
		fn(data)
	}
}

// State returns the current state.
func (v *View[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// IsLoading reports whether no data has arrived yet.
func (v *View[T]) IsLoading() bool {
	s := v.State()
	return s == Loading || s == Pending
}

// IsReady reports whether data is available.
func (v *View[T]) IsReady() bool {
	return v.State() == Ready
}

// IsError reports whether the last load failed.
func (v *View[T]) IsError() bool {
	return v.State() == Error
}

// IsStale reports whether the store has marked the key stale and a fresh
// value has not arrived yet.
func (v *View[T]) IsStale() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stale
}

// Data returns the last loaded data.
func (v *View[T]) Data() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data
}

// DataOr returns the data when ready, fallback otherwise.
func (v *View[T]) DataOr(fallback T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == Ready {
		return v.data
	}
	return fallback
}

// Error returns the last load error.
func (v *View[T]) Error() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Mutate applies a local update to the view's data without touching the
// store. The next refetch replaces it.
func (v *View[T]) Mutate(fn func(T) T) {
	v.mu.Lock()
	v.data = fn(v.data)
	v.mu.Unlock()
}

// Close unsubscribes the view.
func (v *View[T]) Close() {
	v.sub.Close()
}
