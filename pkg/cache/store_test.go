package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingFetcher returns n on the n-th call for each key.
type countingFetcher struct {
	mu    sync.Mutex
	calls map[Key]int
	err   error
	gate  chan struct{}
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{calls: make(map[Key]int)}
}

func (f *countingFetcher) fetch(ctx context.Context, key Key) (any, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if f.err != nil {
		return nil, f.err
	}
	return f.calls[key], nil
}

func (f *countingFetcher) count(key Key) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func TestKeyString(t *testing.T) {
	if got := GoalUpdatesByUser("u1").String(); got != "goal-updates-by-user|u1" {
		t.Errorf("String() = %q", got)
	}
	if got := AllUpdates().String(); got != "all-updates" {
		t.Errorf("String() = %q", got)
	}
	if RecentUpdatesByGoal("g1") != NewKey(NameRecentUpdatesByGoal, "g1") {
		t.Error("keys with the same name and param must be equal")
	}
}

func TestFetchPopulatesLazily(t *testing.T) {
	f := newCountingFetcher()
	s := NewStore()
	s.Register(NameAllUpdates, f.fetch)

	if _, ok := s.Get(AllUpdates()); ok {
		t.Fatal("store should start empty")
	}

	e, err := s.Fetch(context.Background(), AllUpdates())
	if err != nil || e.Value != 1 {
		t.Fatalf("Fetch() = %+v, %v", e, err)
	}
	e, _ = s.Fetch(context.Background(), AllUpdates())
	if e.Value != 1 || f.count(AllUpdates()) != 1 {
		t.Fatalf("fresh entry should be served from cache, fetches=%d", f.count(AllUpdates()))
	}
}

func TestRefreshIgnoresFreshness(t *testing.T) {
	f := newCountingFetcher()
	s := NewStore()
	s.Register(NameAllUpdates, f.fetch)
	ctx := context.Background()

	s.Fetch(ctx, AllUpdates())
	e, err := s.Refresh(ctx, AllUpdates())
	if err != nil || e.Value != 2 || e.Stale {
		t.Fatalf("Refresh() = %+v, %v", e, err)
	}
	if f.count(AllUpdates()) != 2 {
		t.Fatalf("fetches = %d, want 2", f.count(AllUpdates()))
	}
}

func TestInvalidateWithoutSubscribersDefersLoad(t *testing.T) {
	f := newCountingFetcher()
	s := NewStore()
	s.Register(NameAllUpdates, f.fetch)
	ctx := context.Background()

	s.Fetch(ctx, AllUpdates())
	s.Invalidate(AllUpdates())
	s.Wait()

	if f.count(AllUpdates()) != 1 {
		t.Fatal("unsubscribed key must not refetch on invalidation")
	}
	e, _ := s.Get(AllUpdates())
	if !e.Stale {
		t.Fatal("entry should be stale")
	}

	e, _ = s.Fetch(ctx, AllUpdates())
	if e.Value != 2 || e.Stale {
		t.Fatalf("Fetch after invalidation = %+v, want fresh value 2", e)
	}
}

func TestInvalidateRefetchesSubscribedKeys(t *testing.T) {
	f := newCountingFetcher()
	s := NewStore()
	s.Register(NameGoalUpdatesByUser, f.fetch)
	ctx := context.Background()

	mine := GoalUpdatesByUser("u1")
	theirs := GoalUpdatesByUser("u2")
	s.Fetch(ctx, mine)
	s.Fetch(ctx, theirs)

	var got []Entry
	var mu sync.Mutex
	sub := s.Subscribe(mine, func(e Entry) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	defer sub.Close()

	s.Invalidate(mine)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Value != 2 || got[0].Stale {
		t.Fatalf("subscriber got %+v, want one fresh entry with value 2", got)
	}
	if f.count(theirs) != 1 {
		t.Fatal("other keys must not be refetched")
	}
}

func TestSetNotifiesSubscribers(t *testing.T) {
	s := NewStore()
	key := RecentUpdatesByGoal("g1")
	var seen atomic.Int64
	s.Subscribe(key, func(e Entry) {
		if e.Value == "hello" {
			seen.Add(1)
		}
	})
	s.Set(key, "hello")

	if seen.Load() != 1 {
		t.Fatal("expected subscriber to see the set value")
	}
	if s.Subscribers(key) != 1 {
		t.Fatalf("Subscribers() = %d", s.Subscribers(key))
	}
}

func TestSubscriptionClose(t *testing.T) {
	s := NewStore()
	key := AllUpdates()
	sub := s.Subscribe(key, func(Entry) {})
	sub.Close()
	sub.Close()
	if s.Subscribers(key) != 0 {
		t.Fatal("subscription not removed")
	}
}

func TestFetchErrorKeepsEntryStale(t *testing.T) {
	f := newCountingFetcher()
	s := NewStore()
	s.Register(NameAllUpdates, f.fetch)
	ctx := context.Background()

	s.Fetch(ctx, AllUpdates())
	f.err = errors.New("offline")
	s.Invalidate(AllUpdates())

	_, err := s.Fetch(ctx, AllUpdates())
	if err == nil {
		t.Fatal("expected fetch error")
	}
	e, _ := s.Get(AllUpdates())
	if !e.Stale || e.Value != 1 {
		t.Fatalf("entry = %+v, want previous value kept and stale", e)
	}
}

func TestFetchUnregisteredName(t *testing.T) {
	s := NewStore()
	if _, err := s.Fetch(context.Background(), NewKey("nope", "")); err == nil {
		t.Fatal("expected error for unregistered view")
	}
}

func TestConcurrentFetchesShareOneLoad(t *testing.T) {
	f := newCountingFetcher()
	f.gate = make(chan struct{})
	s := NewStore()
	s.Register(NameAllUpdates, f.fetch)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Fetch(context.Background(), AllUpdates())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	if got := f.count(AllUpdates()); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}
}

func TestLoadStartedBeforeInvalidationStaysStale(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int64
	s := NewStore()
	s.Register(NameAllUpdates, func(ctx context.Context, key Key) (any, error) {
		n := calls.Add(1)
		if n == 1 {
			started <- struct{}{}
			<-release
		}
		return n, nil
	})

	done := make(chan Entry)
	go func() {
		e, _ := s.Fetch(context.Background(), AllUpdates())
		done <- e
	}()
	<-started
	s.Invalidate(AllUpdates())
	close(release)

	if e := <-done; !e.Stale {
		t.Fatalf("entry from a pre-invalidation load = %+v, want stale", e)
	}
	e, _ := s.Fetch(context.Background(), AllUpdates())
	if e.Value != int64(2) || e.Stale {
		t.Fatalf("refetch = %+v, want fresh value 2", e)
	}
}

func TestSupersededLoadDoesNotOverwriteRefetch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int64
	s := NewStore()
	s.Register(NameAllUpdates, func(ctx context.Context, key Key) (any, error) {
		if calls.Add(1) == 1 {
			started <- struct{}{}
			<-release
			return "old", nil
		}
		return "new", nil
	})

	var (
		mu   sync.Mutex
		last any
	)
	sub := s.Subscribe(AllUpdates(), func(e Entry) {
		mu.Lock()
		last = e.Value
		mu.Unlock()
	})
	defer sub.Close()

	done := make(chan Entry)
	go func() {
		e, _ := s.Fetch(context.Background(), AllUpdates())
		done <- e
	}()
	<-started
	s.Invalidate(AllUpdates())
	s.Wait()

	e, _ := s.Get(AllUpdates())
	if e.Value != "new" || e.Stale {
		t.Fatalf("after refetch = %+v, want fresh new", e)
	}

	close(release)
	<-done

	e, _ = s.Get(AllUpdates())
	if e.Value != "new" || e.Stale {
		t.Fatalf("after the earlier load landed = %+v, want fresh new", e)
	}
	mu.Lock()
	defer mu.Unlock()
	if last != "new" {
		t.Fatalf("subscriber last saw %v, want new", last)
	}
}

func TestInvalidateName(t *testing.T) {
	f := newCountingFetcher()
	s := NewStore()
	s.Register(NameRecentUpdatesByGoal, f.fetch)
	ctx := context.Background()
	s.Fetch(ctx, RecentUpdatesByGoal("g1"))
	s.Fetch(ctx, RecentUpdatesByGoal("g2"))
	s.Subscribe(RecentUpdatesByGoal("g3"), func(Entry) {})

	keys := s.InvalidateName(NameRecentUpdatesByGoal)
	s.Wait()

	if len(keys) != 3 {
		t.Fatalf("InvalidateName() = %v, want 3 keys", keys)
	}
	for _, k := range []Key{RecentUpdatesByGoal("g1"), RecentUpdatesByGoal("g2")} {
		if e, _ := s.Get(k); !e.Stale {
			t.Errorf("%s not stale", k)
		}
	}
	if f.count(RecentUpdatesByGoal("g3")) != 1 {
		t.Error("subscribed key should be refetched")
	}
}
