// Package cache holds the client-side cached views of the feed.
//
// A view is a named, parameterized read identified by a Key, for example
// ("goal-updates-by-user", userID) or "all-updates". The Store populates
// views lazily through registered Fetchers and keeps a subscriber list per
// key.
//
// Invalidate marks keys stale. Keys with subscribers are refetched in the
// background right away; the rest load on their next Fetch. Components only
// receive the Reader side of the store: invalidation belongs to the mutation
// success path (package invalidate).
//
//	store := cache.NewStore(cache.WithDispatcher(lp))
//	store.Register(cache.NameAllUpdates, fetchAllUpdates)
//
//	feed := cache.Watch[[]Update](store, cache.AllUpdates())
//	defer feed.Close()
//	if err := feed.Load(ctx); err != nil { ... }
package cache
