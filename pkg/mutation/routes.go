package mutation

import (
	"github.com/vango-dev/goalfeed/pkg/entity"
)

// Routes maps a route name (see RouteName) to the endpoint path that
// accepts the write.
type Routes map[string]string

// DefaultRoutes returns the endpoints of the feed API.
func DefaultRoutes() Routes {
	return Routes{
		"update/create":            "/api/fauna/goals/create-update",
		"update/edit":              "/api/fauna/goals/edit-update",
		"update/delete":            "/api/fauna/goals/delete-update",
		"comment/create":           "/api/fauna/goals/create-comment",
		"comment/edit":             "/api/fauna/goals/edit-comment",
		"comment/delete":           "/api/fauna/goals/delete-comment",
		"like/toggle-like:comment": "/api/fauna/toggle-comment-like",
		"like/toggle-like:update":  "/api/fauna/toggle-update-like",
	}
}

// RouteName returns the routing key of d. Likes are routed by the kind of
// entity being liked.
func RouteName(d entity.Descriptor) string {
	name := d.Pair().String()
	if d.Operation == entity.OpToggleLike && d.Subject != nil {
		name += ":" + d.Subject.Kind.String()
	}
	return name
}

// Lookup returns the endpoint path for d.
func (r Routes) Lookup(d entity.Descriptor) (string, bool) {
	path, ok := r[RouteName(d)]
	return path, ok && path != ""
}

// With returns a copy of r with overrides applied.
func (r Routes) With(overrides map[string]string) Routes {
	out := make(Routes, len(r)+len(overrides))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
