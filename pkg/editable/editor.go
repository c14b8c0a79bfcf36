package editable

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vango-dev/goalfeed/pkg/cache"
	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/invalidate"
	"github.com/vango-dev/goalfeed/pkg/loop"
	"github.com/vango-dev/goalfeed/pkg/mutation"
	"github.com/vango-dev/goalfeed/pkg/toast"
)

var (
	// ErrNotOwner is returned when a viewer other than the author tries to
	// edit or delete.
	ErrNotOwner = errors.New("editable: only the author can change this")

	// ErrNotEditing is returned by Submit outside Edit mode.
	ErrNotEditing = errors.New("editable: not in edit mode")

	// ErrSignInRequired is returned when an anonymous viewer tries to post.
	ErrSignInRequired = errors.New("editable: sign in to post")
)

// Mode is the local view mode of an editable entity.
type Mode int

const (
	ModeDisplay Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "display"
}

// Invalidator is told about every successful mutation.
type Invalidator interface {
	OnSuccess(ref entity.Ref, op entity.Operation, c invalidate.Context) []cache.Key
}

// Deps are the collaborators shared by Editors and Composers.
type Deps struct {
	Runner      *mutation.Runner
	Notifier    *toast.Notifier
	Invalidator Invalidator

	// Logger receives settlement problems. Default: slog.Default().
	Logger *slog.Logger

	// Scope is the owning component's lifetime. Settlements after it is
	// disposed still resolve their status indicator and invalidate views,
	// but leave local state alone.
	Scope *loop.Scope
}

// Option configures an Editor or Composer.
type Option func(*options)

type options struct {
	list      *List
	aggregate bool
}

// WithList makes deletes remove the entity from l, and posts add to it.
func WithList(l *List) Option {
	return func(o *options) {
		o.list = l
	}
}

// FromAggregateFeed marks the component as rendered on the all-updates
// page, which widens what a successful update invalidates.
func FromAggregateFeed() Option {
	return func(o *options) {
		o.aggregate = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Editor drives the edit and delete lifecycle of one update or comment.
type Editor struct {
	viewer entity.Identity
	deps   Deps
	opts   options

	mu       sync.Mutex
	item     Item
	mode     Mode
	deleted  bool
	onChange func(Mode)
}

// NewEditor creates an editor in Display mode for item as seen by viewer.
func NewEditor(item Item, viewer entity.Identity, deps Deps, opts ...Option) *Editor {
	if viewer == nil {
		viewer = entity.Anonymous{}
	}
	return &Editor{
		item:   item,
		viewer: viewer,
		deps:   deps,
		opts:   buildOptions(opts),
	}
}

// OnChange registers fn to be called on every mode change.
func (e *Editor) OnChange(fn func(Mode)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// Item returns the last-known item.
func (e *Editor) Item() Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.item
}

// Mode returns the current view mode.
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Deleted reports whether a delete has succeeded.
func (e *Editor) Deleted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleted
}

// CanEdit reports whether viewer may be offered edit and delete.
func (e *Editor) CanEdit() bool {
	return entity.IsOwner(e.viewer, e.item.AuthorID)
}

// BeginEdit enters Edit mode and returns the text to prefill, which is the
// last-known text. Nothing is fetched.
func (e *Editor) BeginEdit() (string, error) {
	if !e.CanEdit() {
		return "", ErrNotOwner
	}
	e.mu.Lock()
	text := e.item.Text
	e.mode = ModeEdit
	e.mu.Unlock()
	e.changed(ModeEdit)
	return text, nil
}

// Cancel leaves Edit mode without sending anything.
func (e *Editor) Cancel() {
	e.mu.Lock()
	was := e.mode
	e.mode = ModeDisplay
	e.mu.Unlock()
	if was != ModeDisplay {
		e.changed(ModeDisplay)
	}
}

// Submit sends text as the new description. Required fields are checked
// first; a validation failure is returned without a request or a status
// indicator. On success the editor returns to Display with the new text,
// on failure it stays in Edit.
func (e *Editor) Submit(ctx context.Context, text string) (toast.Token, error) {
	e.mu.Lock()
	mode := e.mode
	item := e.item
	e.mu.Unlock()
	if mode != ModeEdit {
		return toast.Token{}, ErrNotEditing
	}

	d := entity.Descriptor{
		Entity:    item.Ref,
		Operation: entity.OpEdit,
		Payload:   e.payload(item, text),
	}
	if err := entity.Validate(d); err != nil {
		return toast.Token{}, err
	}

	msg := MessagesFor(d.Pair())
	tok := e.deps.Notifier.Begin(msg.Pending)
	e.deps.Runner.Run(ctx, d, func(out mutation.Outcome) {
		e.deps.Notifier.Resolve(tok, out.Err, msg.Success)
		if out.Err != nil {
			return
		}
		e.invalidate(item, entity.OpEdit)
		if !e.deps.Scope.Alive() {
			return
		}
		e.mu.Lock()
		e.item.Text = text
		e.mode = ModeDisplay
		e.mu.Unlock()
		e.changed(ModeDisplay)
	})
	return tok, nil
}

// Delete removes the entity. On success it is dropped from the held List
// first and the dependent views are invalidated after.
func (e *Editor) Delete(ctx context.Context) (toast.Token, error) {
	if !e.CanEdit() {
		return toast.Token{}, ErrNotOwner
	}
	item := e.Item()
	d := entity.Descriptor{Entity: item.Ref, Operation: entity.OpDelete}
	if err := entity.Validate(d); err != nil {
		return toast.Token{}, err
	}

	msg := MessagesFor(d.Pair())
	tok := e.deps.Notifier.Begin(msg.Pending)
	e.deps.Runner.Run(ctx, d, func(out mutation.Outcome) {
		e.deps.Notifier.Resolve(tok, out.Err, msg.Success)
		if out.Err != nil {
			return
		}
		if e.opts.list != nil {
			e.opts.list.Remove(item.Ref)
		}
		e.invalidate(item, entity.OpDelete)
		if !e.deps.Scope.Alive() {
			return
		}
		e.mu.Lock()
		e.deleted = true
		was := e.mode
		e.mode = ModeDisplay
		e.mu.Unlock()
		if was != ModeDisplay {
			e.changed(ModeDisplay)
		}
	})
	return tok, nil
}

func (e *Editor) payload(item Item, text string) entity.Payload {
	p := entity.Payload{"description": text}
	if item.Ref.Kind == entity.KindComment && item.UpdateID != "" {
		p["updateId"] = item.UpdateID
	}
	return p
}

func (e *Editor) invalidate(item Item, op entity.Operation) {
	if e.deps.Invalidator == nil {
		return
	}
	e.deps.Invalidator.OnSuccess(item.Ref, op, invalidationContext(e.viewer, item.GoalID, e.opts.aggregate))
}

func (e *Editor) changed(m Mode) {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn(m)
	}
}

func invalidationContext(viewer entity.Identity, goalID string, aggregate bool) invalidate.Context {
	c := invalidate.Context{GoalID: goalID, FromAggregateFeed: aggregate}
	if u, ok := entity.User(viewer); ok {
		c.ActingUserID = u.ID
	}
	return c
}
