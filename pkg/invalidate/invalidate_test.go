package invalidate

import (
	"errors"
	"sort"
	"testing"

	ferrors "github.com/vango-dev/goalfeed/internal/errors"
	"github.com/vango-dev/goalfeed/pkg/cache"
	"github.com/vango-dev/goalfeed/pkg/entity"
)

type fakeStore struct {
	invalidated []cache.Key
	byName      map[string][]cache.Key
}

func (f *fakeStore) Invalidate(keys ...cache.Key) {
	f.invalidated = append(f.invalidated, keys...)
}

func (f *fakeStore) InvalidateName(name string) []cache.Key {
	keys := f.byName[name]
	f.invalidated = append(f.invalidated, keys...)
	return keys
}

func keyStrings(keys []cache.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDefaultTableCoversEveryReachablePair(t *testing.T) {
	table := DefaultTable()
	for _, p := range entity.Reachable {
		row, ok := table.Row(p)
		if !ok {
			t.Errorf("no row for %s", p)
			continue
		}
		if len(row) == 0 && !(p.Kind == entity.KindLike && p.Op == entity.OpToggleLike) {
			t.Errorf("unexpected empty row for %s", p)
		}
	}
}

func TestNewTableRejectsIncompleteRows(t *testing.T) {
	rows := DefaultRows()
	delete(rows, entity.Pair{Kind: entity.KindComment, Op: entity.OpDelete})
	rows[entity.Pair{Kind: entity.KindUpdate, Op: entity.OpEdit}] = nil

	_, err := NewTable(rows)
	if err == nil {
		t.Fatal("expected incomplete table error")
	}
	var fe *ferrors.FeedError
	if !errors.As(err, &fe) || fe.Code != ferrors.CodeIncompleteTable {
		t.Fatalf("err = %v, want F003", err)
	}
	want := "missing rows: comment/delete; empty rows: update/edit"
	if fe.Detail != want {
		t.Errorf("Detail = %q, want %q", fe.Detail, want)
	}
}

func TestMustNewTablePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustNewTable(map[entity.Pair][]Template{})
}

func TestOnSuccessRows(t *testing.T) {
	update := entity.NewRef(entity.KindUpdate, "u9")
	comment := entity.NewRef(entity.KindComment, "c1")
	like := entity.NewRef(entity.KindLike, "c1")
	ctx := Context{ActingUserID: "me", GoalID: "g1"}
	agg := ctx
	agg.FromAggregateFeed = true

	tests := []struct {
		name string
		ref  entity.Ref
		op   entity.Operation
		ctx  Context
		want []string
	}{
		{"update create from goal page", update, entity.OpCreate, ctx, []string{"goal-updates-by-user|me"}},
		{"update edit from aggregate feed", update, entity.OpEdit, agg, []string{"all-updates", "goal-updates-by-user|me", "recent-updates-by-goal|g1"}},
		{"update delete", update, entity.OpDelete, ctx, []string{"all-updates", "goal-updates-by-user|me", "recent-updates-by-goal|g1"}},
		{"comment create", comment, entity.OpCreate, ctx, []string{"all-updates"}},
		{"comment edit", comment, entity.OpEdit, ctx, []string{"all-updates"}},
		{"comment delete", comment, entity.OpDelete, ctx, []string{"all-updates"}},
		{"like toggle", like, entity.OpToggleLike, ctx, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			o := New(store)
			got := keyStrings(o.OnSuccess(tt.ref, tt.op, tt.ctx))
			if !equal(got, tt.want) {
				t.Fatalf("OnSuccess() = %v, want %v", got, tt.want)
			}
			if !equal(keyStrings(store.invalidated), tt.want) {
				t.Fatalf("store saw %v, want %v", keyStrings(store.invalidated), tt.want)
			}
		})
	}
}

func TestUnknownParameterInvalidatesByName(t *testing.T) {
	store := &fakeStore{byName: map[string][]cache.Key{
		cache.NameRecentUpdatesByGoal: {cache.RecentUpdatesByGoal("g1"), cache.RecentUpdatesByGoal("g2")},
	}}
	o := New(store)

	got := keyStrings(o.OnSuccess(entity.NewRef(entity.KindUpdate, "u1"), entity.OpEdit,
		Context{ActingUserID: "me", FromAggregateFeed: true}))

	want := []string{"all-updates", "goal-updates-by-user|me", "recent-updates-by-goal|g1", "recent-updates-by-goal|g2"}
	if !equal(got, want) {
		t.Fatalf("OnSuccess() = %v, want %v", got, want)
	}
}

func TestObserver(t *testing.T) {
	var gotPair entity.Pair
	gotViews := -1
	o := New(&fakeStore{}, WithObserver(func(p entity.Pair, n int) {
		gotPair, gotViews = p, n
	}))
	o.OnSuccess(entity.NewRef(entity.KindComment, "c1"), entity.OpDelete, Context{})

	if gotPair != (entity.Pair{Kind: entity.KindComment, Op: entity.OpDelete}) || gotViews != 1 {
		t.Fatalf("observer got %v, %d", gotPair, gotViews)
	}
}
