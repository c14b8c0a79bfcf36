package mutation

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/loop"
)

// Runner executes descriptors off the event loop and applies each
// settlement on it.
//
// Runs are independent: two descriptors for the same entity may be in
// flight at once and settle in any order. There is no queueing and no
// cancel-latest policy.
type Runner struct {
	exec Executor
	disp loop.Dispatcher

	wg       sync.WaitGroup
	inFlight atomic.Int64
	seq      atomic.Uint64
}

// NewRunner creates a Runner. A nil dispatcher runs settlements inline.
func NewRunner(exec Executor, disp loop.Dispatcher) *Runner {
	if disp == nil {
		disp = &loop.Inline{}
	}
	return &Runner{exec: exec, disp: disp}
}

// Run starts d and returns its sequence number. onSettled is dispatched on
// the loop exactly once with the outcome.
func (r *Runner) Run(ctx context.Context, d entity.Descriptor, onSettled func(Outcome)) uint64 {
	seq := r.seq.Add(1)
	r.inFlight.Add(1)
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		out := r.exec.Execute(ctx, d)
		r.inFlight.Add(-1)
		r.disp.Dispatch(func() {
			if onSettled != nil {
				onSettled(out)
			}
		})
	}()

	return seq
}

// InFlight returns the number of executes that have not returned yet.
func (r *Runner) InFlight() int {
	return int(r.inFlight.Load())
}

// Wait blocks until every started run has executed and handed its
// settlement to the dispatcher.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Executor returns the wrapped executor.
func (r *Runner) Executor() Executor {
	return r.exec
}
