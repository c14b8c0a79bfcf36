package toast

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// EventName is the event name dispatched for toasts.
// Client-side code should listen for this event.
const EventName = "goalfeed:toast"

// DefaultDismissAfter is how long terminal indicators stay visible.
const DefaultDismissAfter = 4 * time.Second

// Type represents the toast notification type.
type Type string

const (
	TypeLoading Type = "loading"
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Phase is the lifecycle phase of a status indicator.
type Phase int

const (
	PhasePending Phase = iota
	PhaseSuccess
	PhaseFailure
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pending":
		*p = PhasePending
	case "success":
		*p = PhaseSuccess
	case "failure":
		*p = PhaseFailure
	default:
		return fmt.Errorf("toast: unknown phase %q", b)
	}
	return nil
}

// Terminal reports whether the phase ends a token's lifecycle.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseFailure
}

// Indicator is one visible notification.
type Indicator struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Phase     Phase     `json:"phase"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Action describes what happened to an indicator.
type Action string

const (
	ActionShow    Action = "show"
	ActionDismiss Action = "dismiss"
)

// Event is delivered to subscribers on every change.
type Event struct {
	Name      string    `json:"name"`
	Action    Action    `json:"action"`
	Indicator Indicator `json:"indicator"`
}

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type entry struct {
	ind   Indicator
	gen   uint64
	timer Timer
}

// Channel is the de-duplicated-by-id notification surface.
type Channel struct {
	mu           sync.Mutex
	active       map[string]*entry
	gen          uint64
	dismissAfter time.Duration
	afterFunc    AfterFunc
	now          func() time.Time

	subMu  sync.RWMutex
	subs   map[uint64]func(Event)
	nextID uint64
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithDismissAfter sets how long terminal indicators stay visible.
// Zero keeps them until dismissed explicitly.
func WithDismissAfter(d time.Duration) ChannelOption {
	return func(c *Channel) {
		c.dismissAfter = d
	}
}

// WithAfterFunc replaces the timer source used for auto-dismiss.
func WithAfterFunc(fn AfterFunc) ChannelOption {
	return func(c *Channel) {
		c.afterFunc = fn
	}
}

// NewChannel creates a notification channel.
func NewChannel(opts ...ChannelOption) *Channel {
	c := &Channel{
		active:       make(map[string]*entry),
		dismissAfter: DefaultDismissAfter,
		afterFunc:    realAfterFunc,
		now:          time.Now,
		subs:         make(map[uint64]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show displays ind, replacing any visible indicator with the same id.
func (c *Channel) Show(ind Indicator) {
	c.mu.Lock()
	ind.UpdatedAt = c.now()
	c.gen++
	e := &entry{ind: ind, gen: c.gen}
	if old, ok := c.active[ind.ID]; ok && old.timer != nil {
		old.timer.Stop()
	}
	c.active[ind.ID] = e
	if ind.Phase.Terminal() && c.dismissAfter > 0 {
		id, gen := ind.ID, e.gen
		e.timer = c.afterFunc(c.dismissAfter, func() { c.expire(id, gen) })
	}
	c.mu.Unlock()

	c.publish(Event{Name: EventName, Action: ActionShow, Indicator: ind})
}

// Dismiss removes the indicator with id. It reports whether one was visible.
func (c *Channel) Dismiss(id string) bool {
	c.mu.Lock()
	e, ok := c.active[id]
	if ok {
		delete(c.active, id)
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	c.mu.Unlock()

	if ok {
		c.publish(Event{Name: EventName, Action: ActionDismiss, Indicator: e.ind})
	}
	return ok
}

// expire dismisses id only if it has not been replaced since the timer was set.
func (c *Channel) expire(id string, gen uint64) {
	c.mu.Lock()
	e, ok := c.active[id]
	if !ok || e.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.active, id)
	c.mu.Unlock()

	c.publish(Event{Name: EventName, Action: ActionDismiss, Indicator: e.ind})
}

// Get returns the visible indicator with id.
func (c *Channel) Get(id string) (Indicator, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.active[id]
	if !ok {
		return Indicator{}, false
	}
	return e.ind, true
}

// Active returns every visible indicator, least recently shown first.
func (c *Channel) Active() []Indicator {
	c.mu.Lock()
	out := make([]Indicator, 0, len(c.active))
	gens := make(map[string]uint64, len(c.active))
	for id, e := range c.active {
		out = append(out, e.ind)
		gens[id] = e.gen
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return gens[out[i].ID] < gens[out[j].ID] })
	return out
}

// Subscribe registers fn for every change. The returned function removes it.
func (c *Channel) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	c.nextID++
	id := c.nextID
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Channel) publish(ev Event) {
	c.subMu.RLock()
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}
