package cache

import (
	"context"
	"errors"
	"testing"
)

func TestViewLifecycle(t *testing.T) {
	version := 0
	s := NewStore()
	s.Register(NameAllUpdates, func(ctx context.Context, key Key) (any, error) {
		version++
		return []string{"update", string(rune('0' + version))}, nil
	})

	v := Watch[[]string](s, AllUpdates())
	defer v.Close()

	if v.State() != Pending || !v.IsLoading() {
		t.Fatalf("State() = %v, want pending", v.State())
	}
	if got := v.DataOr([]string{"fallback"}); got[0] != "fallback" {
		t.Fatalf("DataOr() = %v", got)
	}

	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if !v.IsReady() || v.Data()[1] != "1" {
		t.Fatalf("after Load: state=%v data=%v", v.State(), v.Data())
	}

	changes := 0
	v.OnChange(func([]string) { changes++ })
	s.Invalidate(AllUpdates())
	s.Wait()

	if v.Data()[1] != "2" || v.IsStale() {
		t.Fatalf("view did not follow refetch: data=%v stale=%v", v.Data(), v.IsStale())
	}
	if changes != 1 {
		t.Fatalf("changes = %d, want 1", changes)
	}
}

func TestViewStartsReadyFromCache(t *testing.T) {
	s := NewStore()
	s.Set(AllUpdates(), []string{"cached"})

	v := Watch[[]string](s, AllUpdates())
	defer v.Close()
	if !v.IsReady() || v.Data()[0] != "cached" {
		t.Fatalf("state=%v data=%v", v.State(), v.Data())
	}
}

func TestViewError(t *testing.T) {
	s := NewStore()
	s.Register(NameAllUpdates, func(ctx context.Context, key Key) (any, error) {
		return nil, errors.New("offline")
	})
	v := Watch[[]string](s, AllUpdates())
	defer v.Close()

	if err := v.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !v.IsError() || v.Error() == nil {
		t.Fatalf("state=%v err=%v", v.State(), v.Error())
	}
}

func TestViewTypeMismatch(t *testing.T) {
	s := NewStore()
	s.Set(AllUpdates(), 42)
	v := Watch[[]string](s, AllUpdates())
	defer v.Close()
	if !v.IsError() {
		t.Fatalf("State() = %v, want error for mismatched type", v.State())
	}
}

func TestViewMutate(t *testing.T) {
	s := NewStore()
	s.Set(AllUpdates(), []string{"a", "b"})
	v := Watch[[]string](s, AllUpdates())
	defer v.Close()

	v.Mutate(func(items []string) []string { return items[1:] })
	if got := v.Data(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("Data() = %v", got)
	}
	if e, _ := s.Get(AllUpdates()); len(e.Value.([]string)) != 2 {
		t.Fatal("Mutate must not touch the store")
	}
}
