// Package loop provides the single logical thread that all feed state
// transitions run on.
//
// Network calls run in their own goroutines and hand their results back
// with Dispatch, so optimistic state, edit modes and notifications are only
// ever touched from the loop.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is the dispatch queue capacity used by New.
const DefaultQueueSize = 256

// Dispatcher schedules fn to run on the event loop.
type Dispatcher interface {
	Dispatch(fn func())
}

// Loop is a queue of callbacks drained by a single goroutine.
type Loop struct {
	dispatchCh chan func()
	done       chan struct{}
	closed     atomic.Bool
	closeOnce  sync.Once
	logger     *slog.Logger

	// overflow holds callbacks dispatched while the queue was full, in
	// order. Settlements must never be lost.
	mu       sync.Mutex
	overflow []func()
}

// New creates a loop with the given queue size. A nil logger uses
// slog.Default().
func New(queueSize int, logger *slog.Logger) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		dispatchCh: make(chan func(), queueSize),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Dispatch queues fn for execution on the loop. It never blocks: when the
// queue is full fn waits in an overflow list and keeps its place in line.
// Callbacks dispatched after Close are dropped.
func (l *Loop) Dispatch(fn func()) {
	if l.closed.Load() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.overflow) == 0 {
		select {
		case l.dispatchCh <- fn:
			return
		default:
		}
	}
	if len(l.overflow) == 0 {
		l.logger.Debug("dispatch queue full, spilling to overflow")
	}
	l.overflow = append(l.overflow, fn)
}

// Pending returns the number of callbacks waiting to run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.dispatchCh) + len(l.overflow)
}

// refill moves overflowed callbacks into the queue while it has room.
func (l *Loop) refill() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.overflow) > 0 {
		select {
		case l.dispatchCh <- l.overflow[0]:
			l.overflow[0] = nil
			l.overflow = l.overflow[1:]
		default:
			return
		}
	}
}

// Run drains the queue until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case fn := <-l.dispatchCh:
			l.refill()
			l.run(fn)
		}
	}
}

// Drain runs every callback currently queued and returns how many ran.
// It is meant for callers that own the loop and step it manually.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case fn := <-l.dispatchCh:
			l.refill()
			l.run(fn)
			n++
		default:
			return n
		}
	}
}

// Close stops the loop. Queued callbacks are discarded.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
		l.mu.Lock()
		l.overflow = nil
		l.mu.Unlock()
	})
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatched callback panicked", "panic", r)
		}
	}()
	fn()
}

// Inline runs callbacks immediately on the caller's goroutine, serialized by
// a mutex. It stands in for a Loop in tests and one-shot CLI commands.
type Inline struct {
	mu sync.Mutex
}

// Dispatch runs fn while holding the inline lock.
func (i *Inline) Dispatch(fn func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	fn()
}
