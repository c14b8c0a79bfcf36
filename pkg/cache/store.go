package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vango-dev/goalfeed/pkg/loop"
)

// Fetcher loads the value of a view.
type Fetcher func(ctx context.Context, key Key) (any, error)

// Entry is the cached state of one view.
type Entry struct {
	Value     any
	Err       error
	Stale     bool
	FetchedAt time.Time
	Version   uint64
}

// Reader is the read side of the store handed to presentation components.
// It cannot invalidate.
type Reader interface {
	Get(key Key) (Entry, bool)
	Fetch(ctx context.Context, key Key) (Entry, error)
	Subscribe(key Key, fn func(Entry)) *Subscription
}

type record struct {
	entry Entry
	// invalidated counts invalidations; loads that started before the
	// latest one cannot clear Stale.
	invalidated uint64
	// written is the invalidation count seen by the load that produced
	// entry. Loads that started earlier than that are dropped.
	written uint64
}

// Store is the session-wide cache of views. It is created once and
// injected; there is no package-level instance.
type Store struct {
	mu       sync.Mutex
	records  map[Key]*record
	subs     map[Key]map[uint64]func(Entry)
	nextSub  uint64
	fetchers map[string]Fetcher

	group    singleflight.Group
	inflight sync.WaitGroup

	baseCtx     context.Context
	disp        loop.Dispatcher
	logger      *slog.Logger
	now         func() time.Time
	concurrency int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithContext sets the context background refetches run under.
func WithContext(ctx context.Context) Option {
	return func(s *Store) {
		s.baseCtx = ctx
	}
}

// WithDispatcher delivers subscriber notifications through d, typically the
// session event loop.
func WithDispatcher(d loop.Dispatcher) Option {
	return func(s *Store) {
		s.disp = d
	}
}

// WithRefetchConcurrency limits parallel background refetches.
func WithRefetchConcurrency(n int) Option {
	return func(s *Store) {
		s.concurrency = n
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		records:     make(map[Key]*record),
		subs:        make(map[Key]map[uint64]func(Entry)),
		fetchers:    make(map[string]Fetcher),
		baseCtx:     context.Background(),
		disp:        &loop.Inline{},
		logger:      slog.Default(),
		now:         time.Now,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register installs the fetcher for every key named name.
func (s *Store) Register(name string, f Fetcher) {
	s.mu.Lock()
	s.fetchers[name] = f
	s.mu.Unlock()
}

// Get returns the cached entry for key without fetching.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[key]
	if !ok {
		return Entry{}, false
	}
	return r.entry, true
}

// Set stores value as the fresh content of key and notifies subscribers.
func (s *Store) Set(key Key, value any) {
	s.mu.Lock()
	r := s.record(key)
	r.entry = Entry{
		Value:     value,
		FetchedAt: s.now(),
		Version:   r.entry.Version + 1,
	}
	r.written = r.invalidated
	entry := r.entry
	s.mu.Unlock()

	s.notify(key, entry)
}

// Fetch returns the entry for key, loading it first when it is missing or
// stale. Concurrent fetches of one key share a single load.
func (s *Store) Fetch(ctx context.Context, key Key) (Entry, error) {
	s.mu.Lock()
	if r, ok := s.records[key]; ok && !r.entry.Stale && r.entry.Err == nil && !r.entry.FetchedAt.IsZero() {
		entry := r.entry
		s.mu.Unlock()
		return entry, nil
	}
	s.mu.Unlock()

	return s.load(ctx, key)
}

// Refresh loads key regardless of its state.
func (s *Store) Refresh(ctx context.Context, key Key) (Entry, error) {
	return s.load(ctx, key)
}

// Invalidate marks every key stale and refetches, in the background, each one
// that currently has a subscriber. Unsubscribed keys load on their next Fetch.
func (s *Store) Invalidate(keys ...Key) {
	var refetch []Key

	s.mu.Lock()
	for _, key := range keys {
		r := s.record(key)
		r.entry.Stale = true
		r.invalidated++
		s.group.Forget(key.String())
		if len(s.subs[key]) > 0 {
			refetch = append(refetch, key)
		}
	}
	s.mu.Unlock()

	if len(refetch) == 0 {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		var g errgroup.Group
		if s.concurrency > 0 {
			g.SetLimit(s.concurrency)
		}
		for _, key := range refetch {
			key := key
			g.Go(func() error {
				_, err := s.load(s.baseCtx, key)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			s.logger.Warn("background refetch failed", "error", err)
		}
	}()
}

// InvalidateName invalidates every known key with the given view name.
func (s *Store) InvalidateName(name string) []Key {
	keys := s.KeysNamed(name)
	s.Invalidate(keys...)
	return keys
}

// KeysNamed returns every cached or subscribed key with the given name.
func (s *Store) KeysNamed(name string) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[Key]bool)
	var keys []Key
	for key := range s.records {
		if key.Name == name && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	for key, subs := range s.subs {
		if key.Name == name && len(subs) > 0 && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// Wait blocks until every background refetch has finished.
func (s *Store) Wait() {
	s.inflight.Wait()
}

// Subscribers returns how many subscriptions key has.
func (s *Store) Subscribers(key Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[key])
}

// Subscription is a registered interest in one key.
type Subscription struct {
	s    *Store
	key  Key
	id   uint64
	once sync.Once
}

// Key returns the subscribed key.
func (sub *Subscription) Key() Key {
	return sub.key
}

// Close removes the subscription.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.s.mu.Lock()
		delete(sub.s.subs[sub.key], sub.id)
		if len(sub.s.subs[sub.key]) == 0 {
			delete(sub.s.subs, sub.key)
		}
		sub.s.mu.Unlock()
	})
}

// Subscribe calls fn, through the store's dispatcher, every time key gets a
// new entry.
func (s *Store) Subscribe(key Key, fn func(Entry)) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	if s.subs[key] == nil {
		s.subs[key] = make(map[uint64]func(Entry))
	}
	s.subs[key][s.nextSub] = fn
	return &Subscription{s: s, key: key, id: s.nextSub}
}

func (s *Store) record(key Key) *record {
	r, ok := s.records[key]
	if !ok {
		r = &record{}
		s.records[key] = r
	}
	return r
}

func (s *Store) load(ctx context.Context, key Key) (Entry, error) {
	s.mu.Lock()
	fetch, ok := s.fetchers[key.Name]
	s.mu.Unlock()
	if !ok {
		return Entry{}, fmt.Errorf("cache: no fetcher registered for %q", key.Name)
	}

	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		s.mu.Lock()
		gen := s.record(key).invalidated
		s.mu.Unlock()

		value, err := fetch(ctx, key)

		s.mu.Lock()
		r := s.record(key)
		if gen < r.written {
			// A load started after ours already landed.
			entry := r.entry
			s.mu.Unlock()
			s.logger.Debug("dropped superseded load", "key", key.String())
			return entry, nil
		}
		r.written = gen
		if err != nil {
			r.entry.Err = err
			r.entry.Stale = true
		} else {
			r.entry = Entry{
				Value:     value,
				FetchedAt: s.now(),
				Version:   r.entry.Version + 1,
				Stale:     r.invalidated != gen,
			}
		}
		entry := r.entry
		s.mu.Unlock()

		s.notify(key, entry)
		return entry, err
	})
	entry, _ := v.(Entry)
	if err != nil {
		return entry, fmt.Errorf("cache: fetch %s: %w", key, err)
	}
	return entry, nil
}

func (s *Store) notify(key Key, entry Entry) {
	s.mu.Lock()
	fns := make([]func(Entry), 0, len(s.subs[key]))
	for _, fn := range s.subs[key] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn := fn
		s.disp.Dispatch(func() { fn(entry) })
	}
}
