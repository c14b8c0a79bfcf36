package likes

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/loop"
	"github.com/vango-dev/goalfeed/pkg/mutation"
	"github.com/vango-dev/goalfeed/pkg/toast"
)

type harness struct {
	calls    atomic.Int64
	fail     atomic.Bool
	runner   *mutation.Runner
	notifier *toast.Notifier
	events   []toast.Event
	mu       sync.Mutex
	prompts  []entity.Ref
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{}
	exec := mutation.ExecutorFunc(func(ctx context.Context, d entity.Descriptor) mutation.Outcome {
		h.calls.Add(1)
		if h.fail.Load() {
			return mutation.Failure(errors.New("500 Internal Server Error"))
		}
		return mutation.Success([]byte(`{}`))
	})
	ch := toast.NewChannel(toast.WithDismissAfter(0))
	t.Cleanup(ch.Subscribe(func(ev toast.Event) {
		h.mu.Lock()
		h.events = append(h.events, ev)
		h.mu.Unlock()
	}))
	h.runner = mutation.NewRunner(exec, nil)
	h.notifier = toast.NewNotifier(ch)
	return h
}

func (h *harness) deps(scope *loop.Scope) Deps {
	return Deps{
		Runner:   h.runner,
		Notifier: h.notifier,
		Scope:    scope,
		Prompter: PrompterFunc(func(subject entity.Ref) {
			h.mu.Lock()
			h.prompts = append(h.prompts, subject)
			h.mu.Unlock()
		}),
	}
}

func (h *harness) terminalEvents(id string, phase toast.Phase) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ev := range h.events {
		if ev.Indicator.ID == id && ev.Action == toast.ActionShow && ev.Indicator.Phase == phase {
			n++
		}
	}
	return n
}

var viewer = entity.Authenticated{ID: "u1", Name: "jdoe"}

func TestFlip(t *testing.T) {
	tests := []struct {
		in, want State
	}{
		{State{Count: 5}, State{Count: 6, Engaged: true}},
		{State{Count: 6, Engaged: true}, State{Count: 5}},
		{State{Count: 0, Engaged: true}, State{Count: 0}},
	}
	for _, tt := range tests {
		if got := Flip(tt.in); got != tt.want {
			t.Errorf("Flip(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestSettle(t *testing.T) {
	before := State{Count: 5}
	current := State{Count: 6, Engaged: true}
	if got := Settle(current, before, nil); got != current {
		t.Errorf("success should keep the optimistic state, got %+v", got)
	}
	if got := Settle(current, before, errors.New("x")); got != before {
		t.Errorf("failure should restore the snapshot, got %+v", got)
	}
}

func TestAnonymousViewerIsPromptedToSignIn(t *testing.T) {
	h := newHarness(t)
	subject := entity.NewRef(entity.KindComment, "c1")
	tg := NewToggle(subject, State{Count: 3}, entity.Anonymous{}, h.deps(nil))

	_, err := tg.Toggle(context.Background())
	h.runner.Wait()

	if !errors.Is(err, ErrSignInRequired) {
		t.Fatalf("Toggle() = %v, want ErrSignInRequired", err)
	}
	if h.calls.Load() != 0 {
		t.Fatal("anonymous toggle must not reach the network")
	}
	if got := tg.State(); got != (State{Count: 3}) {
		t.Fatalf("State() = %+v, want unchanged", got)
	}
	if len(h.prompts) != 1 || h.prompts[0] != subject {
		t.Fatalf("prompts = %v, want one sign-in prompt for %v", h.prompts, subject)
	}
	if len(h.events) != 0 {
		t.Fatal("anonymous toggle must not show a status indicator")
	}
}

func TestFailureRevertsAndNotifiesOnce(t *testing.T) {
	h := newHarness(t)
	h.fail.Store(true)
	tg := NewToggle(entity.NewRef(entity.KindComment, "c1"), State{Count: 5}, viewer, h.deps(nil))

	var seen []State
	tg.OnChange(func(s State) { seen = append(seen, s) })

	tok, err := tg.Toggle(context.Background())
	if err != nil {
		t.Fatalf("Toggle() = %v", err)
	}
	if len(seen) == 0 || seen[0] != (State{Count: 6, Engaged: true}) {
		t.Fatalf("optimistic state = %v, want count=6 engaged", seen)
	}

	h.runner.Wait()

	if got := tg.State(); got != (State{Count: 5}) {
		t.Fatalf("State() = %+v, want reverted to count=5", got)
	}
	if got := h.terminalEvents(tok.ID, toast.PhaseFailure); got != 1 {
		t.Fatalf("failure notifications for %s = %d, want 1", tok.ID, got)
	}
	if h.calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", h.calls.Load())
	}
}

func TestSuccessKeepsOptimisticState(t *testing.T) {
	h := newHarness(t)
	initial := State{Count: 2}
	tg := NewToggle(entity.NewRef(entity.KindUpdate, "u7"), initial, viewer, h.deps(nil))

	toggles := 5
	for i := 0; i < toggles; i++ {
		if _, err := tg.Toggle(context.Background()); err != nil {
			t.Fatal(err)
		}
		h.runner.Wait()
	}

	got := tg.State()
	if got.Engaged != (toggles%2 == 1) {
		t.Errorf("Engaged = %v after %d toggles", got.Engaged, toggles)
	}
	if got.Count != initial.Count+1 {
		t.Errorf("Count = %d, want %d", got.Count, initial.Count+1)
	}
}

func TestSettlementAfterTeardownLeavesStateAlone(t *testing.T) {
	h := newHarness(t)
	h.fail.Store(true)
	scope := loop.NewScope()

	release := make(chan struct{})
	gated := mutation.ExecutorFunc(func(ctx context.Context, d entity.Descriptor) mutation.Outcome {
		<-release
		return mutation.Failure(errors.New("timeout"))
	})
	deps := h.deps(scope)
	deps.Runner = mutation.NewRunner(gated, nil)

	tg := NewToggle(entity.NewRef(entity.KindComment, "c1"), State{Count: 1}, viewer, deps)
	tok, _ := tg.Toggle(context.Background())

	scope.Dispose()
	close(release)
	deps.Runner.Wait()

	if got := tg.State(); got != (State{Count: 2, Engaged: true}) {
		t.Fatalf("State() = %+v, torn-down toggle must not be reverted", got)
	}
	if got := h.terminalEvents(tok.ID, toast.PhaseFailure); got != 1 {
		t.Fatalf("failure notifications = %d, want the token still resolved once", got)
	}
	if len(h.notifier.Pending()) != 0 {
		t.Fatal("token left pending after teardown")
	}
}

func TestRacingTogglesSettleIndependently(t *testing.T) {
	h := newHarness(t)
	lp := loop.New(8, nil)

	entered := make(chan int, 2)
	release := []chan struct{}{make(chan struct{}), make(chan struct{})}
	var n atomic.Int64
	exec := mutation.ExecutorFunc(func(ctx context.Context, d entity.Descriptor) mutation.Outcome {
		i := int(n.Add(1)) - 1
		entered <- i
		<-release[i]
		if i == 0 {
			return mutation.Failure(errors.New("conflict"))
		}
		return mutation.Success(nil)
	})
	deps := h.deps(nil)
	deps.Runner = mutation.NewRunner(exec, lp)

	tg := NewToggle(entity.NewRef(entity.KindComment, "c1"), State{Count: 5}, viewer, deps)
	tg.Toggle(context.Background()) // 6, engaged
	<-entered
	tg.Toggle(context.Background()) // 5, not engaged
	<-entered

	close(release[1])
	close(release[0])
	deps.Runner.Wait()
	lp.Drain()

	// The failing first toggle restores its own snapshot whichever order
	// the settlements arrive in.
	if got := tg.State(); got != (State{Count: 5}) {
		t.Fatalf("State() = %+v", got)
	}
	if h.calls.Load() != 0 {
		t.Fatalf("harness executor should not be used, calls = %d", h.calls.Load())
	}
}
