package invalidate

import (
	"log/slog"

	"github.com/vango-dev/goalfeed/pkg/cache"
	"github.com/vango-dev/goalfeed/pkg/entity"
)

// Context carries the values templates are resolved against.
type Context struct {
	ActingUserID string
	GoalID       string

	// FromAggregateFeed is set when the mutation was issued from the
	// all-updates page.
	FromAggregateFeed bool
}

// Invalidator is the write side of the cache store.
type Invalidator interface {
	Invalidate(keys ...cache.Key)
	InvalidateName(name string) []cache.Key
}

// Observer is told how many views each successful mutation invalidated.
type Observer func(p entity.Pair, views int)

// Orchestrator invalidates the views that depend on a mutated entity. It is
// the only component allowed to mark views stale, and it is only called
// from mutation success handlers.
type Orchestrator struct {
	table    *Table
	store    Invalidator
	logger   *slog.Logger
	observer Observer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTable replaces the default dependency table.
func WithTable(t *Table) Option {
	return func(o *Orchestrator) {
		o.table = t
	}
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithObserver registers an observer for invalidation counts.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// New creates an orchestrator over store.
func New(store Invalidator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.table == nil {
		o.table = DefaultTable()
	}
	return o
}

// Resolve returns the concrete keys for (ref.Kind, op) under c, plus the
// names of templates whose parameter is unknown in c.
func (o *Orchestrator) Resolve(ref entity.Ref, op entity.Operation, c Context) (keys []cache.Key, names []string) {
	row, _ := o.table.Row(entity.Pair{Kind: ref.Kind, Op: op})
	for _, tpl := range row {
		if tpl.OnlyFromAggregate && !c.FromAggregateFeed {
			continue
		}
		var param string
		switch tpl.Param {
		case ParamActingUser:
			param = c.ActingUserID
		case ParamGoal:
			param = c.GoalID
		}
		if tpl.Param != ParamNone && param == "" {
			// Unknown parameter: every view with this name may depend on it.
			names = append(names, tpl.Name)
			continue
		}
		keys = append(keys, cache.NewKey(tpl.Name, param))
	}
	return keys, names
}

// OnSuccess invalidates every view that depends on the mutation and returns
// the keys it marked stale.
func (o *Orchestrator) OnSuccess(ref entity.Ref, op entity.Operation, c Context) []cache.Key {
	keys, names := o.Resolve(ref, op, c)
	if len(keys) > 0 {
		o.store.Invalidate(keys...)
	}
	for _, name := range names {
		keys = append(keys, o.store.InvalidateName(name)...)
	}

	o.logger.Debug("views invalidated",
		"entity", ref.String(),
		"op", op.String(),
		"views", len(keys),
	)
	if o.observer != nil {
		o.observer(entity.Pair{Kind: ref.Kind, Op: op}, len(keys))
	}
	return keys
}
