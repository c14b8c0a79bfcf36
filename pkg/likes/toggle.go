package likes

import (
	"context"
	"errors"
	"sync"

	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/loop"
	"github.com/vango-dev/goalfeed/pkg/mutation"
	"github.com/vango-dev/goalfeed/pkg/toast"
)

// ErrSignInRequired is returned when an anonymous viewer toggles a like.
var ErrSignInRequired = errors.New("likes: sign in to like")

// Messages shown on the status indicator.
const (
	PendingMessage = "Updating like..."
	LikedMessage   = "Liked!"
	UnlikedMessage = "Like removed"
)

// Prompter asks an anonymous viewer to sign in.
type Prompter interface {
	PromptSignIn(subject entity.Ref)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(subject entity.Ref)

// PromptSignIn calls f.
func (f PrompterFunc) PromptSignIn(subject entity.Ref) {
	f(subject)
}

// Deps are the collaborators of a Toggle.
type Deps struct {
	Runner   *mutation.Runner
	Notifier *toast.Notifier
	Prompter Prompter

	// Scope is the owning component's lifetime. Settlements after it is
	// disposed leave the counter alone.
	Scope *loop.Scope
}

// Toggle is the optimistic like affordance for one comment or update.
//
// Toggles are not serialized: rapid clicks each issue their own mutation and
// each settlement applies to whatever is displayed when it arrives.
type Toggle struct {
	subject entity.Ref
	viewer  entity.Identity
	deps    Deps

	mu       sync.Mutex
	state    State
	onChange func(State)
}

// NewToggle creates a toggle for subject with the server-supplied state.
func NewToggle(subject entity.Ref, initial State, viewer entity.Identity, deps Deps) *Toggle {
	if viewer == nil {
		viewer = entity.Anonymous{}
	}
	return &Toggle{
		subject: subject,
		viewer:  viewer,
		deps:    deps,
		state:   initial,
	}
}

// OnChange registers fn to be called with every new state.
func (t *Toggle) OnChange(fn func(State)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// State returns the displayed state.
func (t *Toggle) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subject returns the liked entity.
func (t *Toggle) Subject() entity.Ref {
	return t.subject
}

// Toggle flips the like. Anonymous viewers get a sign-in prompt and
// ErrSignInRequired; nothing changes and nothing is sent. Otherwise the
// state flips immediately and a ToggleLike mutation is issued.
func (t *Toggle) Toggle(ctx context.Context) (toast.Token, error) {
	if _, ok := entity.User(t.viewer); !ok {
		if t.deps.Prompter != nil {
			t.deps.Prompter.PromptSignIn(t.subject)
		}
		return toast.Token{}, ErrSignInRequired
	}

	t.mu.Lock()
	before := t.state
	t.state = Flip(before)
	after := t.state
	t.mu.Unlock()
	t.changed(after)

	tok := t.deps.Notifier.Begin(PendingMessage)
	message := LikedMessage
	if !after.Engaged {
		message = UnlikedMessage
	}

	t.deps.Runner.Run(ctx, t.descriptor(), func(out mutation.Outcome) {
		t.deps.Notifier.Resolve(tok, out.Err, message)
		if !t.deps.Scope.Alive() {
			return
		}
		t.mu.Lock()
		t.state = Settle(t.state, before, out.Err)
		settled := t.state
		t.mu.Unlock()
		if out.Err != nil {
			t.changed(settled)
		}
	})
	return tok, nil
}

func (t *Toggle) descriptor() entity.Descriptor {
	subject := t.subject
	field := "commentId"
	if subject.Kind == entity.KindUpdate {
		field = "updateId"
	}
	return entity.Descriptor{
		Entity:    entity.NewRef(entity.KindLike, subject.ID),
		Operation: entity.OpToggleLike,
		Subject:   &subject,
		Payload:   entity.Payload{field: subject.ID},
	}
}

func (t *Toggle) changed(s State) {
	t.mu.Lock()
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}
