package editable

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/mutation"
	"github.com/vango-dev/goalfeed/pkg/toast"
)

// Composer posts new updates to a goal or new comments to an update.
type Composer struct {
	kind     entity.Kind
	goalID   string
	updateID string
	viewer   entity.Identity
	deps     Deps
	opts     options

	mu       sync.Mutex
	onPosted func(Item)
}

// NewUpdateComposer creates a composer for updates on goalID.
func NewUpdateComposer(goalID string, viewer entity.Identity, deps Deps, opts ...Option) *Composer {
	return newComposer(entity.KindUpdate, goalID, "", viewer, deps, opts)
}

// NewCommentComposer creates a composer for comments on updateID, which
// belongs to goalID.
func NewCommentComposer(updateID, goalID string, viewer entity.Identity, deps Deps, opts ...Option) *Composer {
	return newComposer(entity.KindComment, goalID, updateID, viewer, deps, opts)
}

func newComposer(kind entity.Kind, goalID, updateID string, viewer entity.Identity, deps Deps, opts []Option) *Composer {
	if viewer == nil {
		viewer = entity.Anonymous{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Composer{
		kind:     kind,
		goalID:   goalID,
		updateID: updateID,
		viewer:   viewer,
		deps:     deps,
		opts:     buildOptions(opts),
	}
}

// OnPosted registers fn to be called with each created item.
func (c *Composer) OnPosted(fn func(Item)) {
	c.mu.Lock()
	c.onPosted = fn
	c.mu.Unlock()
}

// Submit posts text. Anonymous viewers get ErrSignInRequired and an empty
// text is rejected locally; neither sends a request or shows an indicator.
func (c *Composer) Submit(ctx context.Context, text string) (toast.Token, error) {
	user, ok := entity.User(c.viewer)
	if !ok {
		return toast.Token{}, ErrSignInRequired
	}

	d := entity.Descriptor{
		Entity:    entity.NewRef(c.kind, ""),
		Operation: entity.OpCreate,
		Payload:   c.payload(text),
	}
	if err := entity.Validate(d); err != nil {
		return toast.Token{}, err
	}

	msg := MessagesFor(d.Pair())
	tok := c.deps.Notifier.Begin(msg.Pending)
	c.deps.Runner.Run(ctx, d, func(out mutation.Outcome) {
		c.deps.Notifier.Resolve(tok, out.Err, msg.Success)
		if out.Err != nil {
			return
		}

		item := c.created(out, user, text)
		if c.deps.Invalidator != nil {
			c.deps.Invalidator.OnSuccess(item.Ref, entity.OpCreate,
				invalidationContext(c.viewer, c.goalID, c.opts.aggregate))
		}
		if !c.deps.Scope.Alive() || item.Ref.ID == "" {
			return
		}
		if c.opts.list != nil {
			c.opts.list.Add(item)
		}
		c.mu.Lock()
		fn := c.onPosted
		c.mu.Unlock()
		if fn != nil {
			fn(item)
		}
	})
	return tok, nil
}

func (c *Composer) payload(text string) entity.Payload {
	p := entity.Payload{"description": text}
	if c.goalID != "" {
		p["goalId"] = c.goalID
	}
	if c.kind == entity.KindComment {
		p["updateId"] = c.updateID
	}
	return p
}

// created builds the posted item from the server result. The API answers
// with the created document; only its id is needed.
func (c *Composer) created(out mutation.Outcome, user entity.Authenticated, text string) Item {
	var doc struct {
		ID string `json:"id"`
	}
	if err := out.Decode(&doc); err != nil {
		c.deps.Logger.Warn("decode created document", "kind", c.kind.String(), "error", err)
	} else if doc.ID == "" {
		c.deps.Logger.Warn("created document has no id", "kind", c.kind.String())
	}
	return Item{
		Ref:      entity.NewRef(c.kind, doc.ID),
		AuthorID: user.ID,
		Text:     text,
		GoalID:   c.goalID,
		UpdateID: c.updateID,
	}
}
