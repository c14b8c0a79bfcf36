package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/vango-dev/goalfeed/pkg/cache"
)

// Read endpoints of the cached views.
const (
	AllUpdatesPath    = "/api/fauna/all-updates"
	RecentUpdatesPath = "/api/fauna/recent-updates"
	GoalsByUserPath   = "/api/fauna/goals/all-goals-by-user"
)

// registerFetchers installs the fetchers of the three feed views.
func (f *Feed) registerFetchers() {
	f.store.Register(cache.NameAllUpdates, func(ctx context.Context, key cache.Key) (any, error) {
		var updates []Update
		err := f.getJSON(ctx, AllUpdatesPath, nil, &updates)
		return updates, err
	})
	f.store.Register(cache.NameRecentUpdatesByGoal, func(ctx context.Context, key cache.Key) (any, error) {
		var updates []Update
		err := f.getJSON(ctx, RecentUpdatesPath, url.Values{"goalId": {key.Param}}, &updates)
		return updates, err
	})
	f.store.Register(cache.NameGoalUpdatesByUser, func(ctx context.Context, key cache.Key) (any, error) {
		var goals []Goal
		err := f.getJSON(ctx, GoalsByUserPath, url.Values{"userId": {key.Param}}, &goals)
		return goals, err
	})
}

func (f *Feed) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	u := f.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection goes back to the pool.
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}
