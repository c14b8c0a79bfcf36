// Package feed wires the goalfeed client core together.
//
// A Feed owns one mutation pipeline (HTTP client wrapped in tracing, metrics
// and logging middleware), one status channel, one view cache with fetchers
// for the three feed views and the invalidation orchestrator between them.
// Components get likes toggles, editors and composers from it:
//
//	f := feed.New(cfg, feed.WithLogger(logger))
//	viewer := feed.Identity(cfg.Identity)
//
//	updates := f.AllUpdates()
//	if err := updates.Load(ctx); err != nil {
//	    return err
//	}
//	for _, u := range updates.Data() {
//	    like := f.Like(u.Ref(), u.LikeState(), viewer, nil)
//	    ...
//	}
package feed
