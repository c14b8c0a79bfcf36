package editable

import (
	"slices"
	"sync"

	"github.com/vango-dev/goalfeed/pkg/entity"
)

// Item is the last-known rendering of an update or comment.
type Item struct {
	Ref      entity.Ref `json:"ref"`
	AuthorID string     `json:"authorId"`
	Text     string     `json:"description"`

	// GoalID is the goal the update belongs to, or the goal of the
	// comment's update.
	GoalID string `json:"goalId,omitempty"`

	// UpdateID is set on comments.
	UpdateID string `json:"updateId,omitempty"`
}

// List is a locally held, ordered list of items, such as the comments
// rendered under an update.
type List struct {
	mu       sync.Mutex
	items    []Item
	onChange func([]Item)
}

// NewList creates a list holding items.
func NewList(items ...Item) *List {
	return &List{items: slices.Clone(items)}
}

// OnChange registers fn to be called with a copy of the items after every
// change.
func (l *List) OnChange(fn func([]Item)) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// Items returns a copy of the items.
func (l *List) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Len returns the number of items.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Contains reports whether ref is in the list.
func (l *List) Contains(ref entity.Ref) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index(ref) >= 0
}

// Add appends it, replacing an item with the same ref in place.
func (l *List) Add(it Item) {
	l.mu.Lock()
	if i := l.index(it.Ref); i >= 0 {
		l.items[i] = it
	} else {
		l.items = append(l.items, it)
	}
	l.mu.Unlock()
	l.changed()
}

// Replace swaps the whole contents, typically with a freshly loaded view.
func (l *List) Replace(items []Item) {
	l.mu.Lock()
	l.items = slices.Clone(items)
	l.mu.Unlock()
	l.changed()
}

// Remove drops ref from the list and reports whether it was present.
func (l *List) Remove(ref entity.Ref) bool {
	l.mu.Lock()
	i := l.index(ref)
	if i < 0 {
		l.mu.Unlock()
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	l.mu.Unlock()
	l.changed()
	return true
}

func (l *List) index(ref entity.Ref) int {
	return slices.IndexFunc(l.items, func(it Item) bool { return it.Ref == ref })
}

func (l *List) changed() {
	l.mu.Lock()
	fn := l.onChange
	items := slices.Clone(l.items)
	l.mu.Unlock()
	if fn != nil {
		fn(items)
	}
}
