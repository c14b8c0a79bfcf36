// Package feedtest provides an in-memory feed API for tests.
//
//	api := feedtest.NewServer(t, feedtest.WithUser("u1"))
//	api.AddGoal("g1", "Run a marathon")
//	cfg := config.New()
//	cfg.API.BaseURL = api.URL
package feedtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/goalfeed/pkg/feed"
)

// Server is a stateful fake of the remote feed API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	user     feed.Author
	goals    []*feed.Goal
	owner    map[string]string // goal id -> user id
	nextID   int
	writes   map[string]int
	reads    map[string]int
	failNext map[string]int
}

// Option configures a Server.
type Option func(*Server)

// WithUser sets the user every write is attributed to.
func WithUser(id string) Option {
	return func(s *Server) {
		s.user = feed.Author{ID: id, Username: "user-" + id}
	}
}

// NewServer starts a fake API that is closed when the test ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := &Server{
		user:     feed.Author{ID: "u1", Username: "user-u1"},
		owner:    make(map[string]string),
		writes:   make(map[string]int),
		reads:    make(map[string]int),
		failNext: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get(feed.AllUpdatesPath, s.read(func(r *http.Request) any { return s.allUpdates("") }))
	r.Get(feed.RecentUpdatesPath, s.read(func(r *http.Request) any { return s.allUpdates(r.URL.Query().Get("goalId")) }))
	r.Get(feed.GoalsByUserPath, s.read(func(r *http.Request) any { return s.goalsOf(r.URL.Query().Get("userId")) }))

	r.Post("/api/fauna/goals/create-update", s.write(s.createUpdate))
	r.Post("/api/fauna/goals/edit-update", s.write(s.editUpdate))
	r.Post("/api/fauna/goals/delete-update", s.write(s.deleteUpdate))
	r.Post("/api/fauna/goals/create-comment", s.write(s.createComment))
	r.Post("/api/fauna/goals/edit-comment", s.write(s.editComment))
	r.Post("/api/fauna/goals/delete-comment", s.write(s.deleteComment))
	r.Post("/api/fauna/toggle-comment-like", s.write(s.toggleCommentLike))
	r.Post("/api/fauna/toggle-update-like", s.write(s.toggleUpdateLike))

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddGoal creates a goal owned by the server's user.
func (s *Server) AddGoal(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, &feed.Goal{ID: id, Title: title})
	s.owner[id] = s.user.ID
}

// AddUpdate posts an update directly, bypassing the API, and returns it.
func (s *Server) AddUpdate(goalID, text string) feed.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, _ := s.addUpdateLocked(goalID, text)
	return u
}

// AddComment posts a comment directly and returns it.
func (s *Server) AddComment(updateID, text string) feed.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := s.addCommentLocked(updateID, text)
	return c
}

// FailNext makes the next n requests to path, reads or writes, answer 500.
func (s *Server) FailNext(path string, n int) {
	s.mu.Lock()
	s.failNext[path] = n
	s.mu.Unlock()
}

// Writes returns how many writes reached path.
func (s *Server) Writes(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[path]
}

// TotalWrites returns how many writes reached the server.
func (s *Server) TotalWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.writes {
		n += c
	}
	return n
}

// Reads returns how many reads reached path.
func (s *Server) Reads(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[path]
}

// Update returns the stored update with id.
func (s *Server) Update(id string) (feed.Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findUpdate(id)
	if u == nil {
		return feed.Update{}, false
	}
	return *u, true
}

type body struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	GoalID      string `json:"goalId"`
	UpdateID    string `json:"updateId"`
	CommentID   string `json:"commentId"`
}

func (s *Server) read(fn func(r *http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.reads[r.URL.Path]++
		if s.failNext[r.URL.Path] > 0 {
			s.failNext[r.URL.Path]--
			s.mu.Unlock()
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "fauna unavailable"})
			return
		}
		v := fn(r)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) write(fn func(b body) (any, int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b body
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
			return
		}

		s.mu.Lock()
		s.writes[r.URL.Path]++
		if s.failNext[r.URL.Path] > 0 {
			s.failNext[r.URL.Path]--
			s.mu.Unlock()
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "fauna unavailable"})
			return
		}
		v, status := fn(b)
		s.mu.Unlock()
		writeJSON(w, status, v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(what, id string) (any, int) {
	return map[string]string{"message": fmt.Sprintf("%s %s not found", what, id)}, http.StatusNotFound
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

func (s *Server) findGoal(id string) *feed.Goal {
	for _, g := range s.goals {
		if g.ID == id {
			return g
		}
	}
	return nil
}

func (s *Server) findUpdate(id string) *feed.Update {
	for _, g := range s.goals {
		for i := range g.Updates {
			if g.Updates[i].ID == id {
				return &g.Updates[i]
			}
		}
	}
	return nil
}

func (s *Server) findComment(id string) (*feed.Update, int) {
	for _, g := range s.goals {
		for i := range g.Updates {
			for j := range g.Updates[i].Comments {
				if g.Updates[i].Comments[j].ID == id {
					return &g.Updates[i], j
				}
			}
		}
	}
	return nil, -1
}

func (s *Server) addUpdateLocked(goalID, text string) (feed.Update, bool) {
	g := s.findGoal(goalID)
	if g == nil {
		return feed.Update{}, false
	}
	u := feed.Update{
		ID:          s.newID("up"),
		Description: text,
		GoalID:      goalID,
		PostedBy:    s.user,
		CreatedAt:   time.Now().UnixMilli(),
	}
	g.Updates = append(g.Updates, u)
	return u, true
}

func (s *Server) addCommentLocked(updateID, text string) (feed.Comment, bool) {
	u := s.findUpdate(updateID)
	if u == nil {
		return feed.Comment{}, false
	}
	c := feed.Comment{
		ID:          s.newID("c"),
		Description: text,
		PostedBy:    s.user,
		CreatedAt:   time.Now().UnixMilli(),
	}
	u.Comments = append(u.Comments, c)
	return c, true
}

func (s *Server) allUpdates(goalID string) []feed.Update {
	out := []feed.Update{}
	for _, g := range s.goals {
		if goalID != "" && g.ID != goalID {
			continue
		}
		out = append(out, g.Updates...)
	}
	slices.SortStableFunc(out, func(a, b feed.Update) int {
		return int(b.CreatedAt - a.CreatedAt)
	})
	return out
}

func (s *Server) goalsOf(userID string) []feed.Goal {
	out := []feed.Goal{}
	for _, g := range s.goals {
		if s.owner[g.ID] == userID {
			out = append(out, *g)
		}
	}
	return out
}

func (s *Server) createUpdate(b body) (any, int) {
	u, ok := s.addUpdateLocked(b.GoalID, b.Description)
	if !ok {
		return notFound("goal", b.GoalID)
	}
	return u, http.StatusOK
}

func (s *Server) editUpdate(b body) (any, int) {
	u := s.findUpdate(b.ID)
	if u == nil {
		return notFound("update", b.ID)
	}
	u.Description = b.Description
	return u, http.StatusOK
}

func (s *Server) deleteUpdate(b body) (any, int) {
	for _, g := range s.goals {
		for i := range g.Updates {
			if g.Updates[i].ID == b.ID {
				g.Updates = slices.Delete(g.Updates, i, i+1)
				return map[string]string{"id": b.ID}, http.StatusOK
			}
		}
	}
	return notFound("update", b.ID)
}

func (s *Server) createComment(b body) (any, int) {
	c, ok := s.addCommentLocked(b.UpdateID, b.Description)
	if !ok {
		return notFound("update", b.UpdateID)
	}
	return c, http.StatusOK
}

func (s *Server) editComment(b body) (any, int) {
	u, i := s.findComment(b.ID)
	if u == nil {
		return notFound("comment", b.ID)
	}
	u.Comments[i].Description = b.Description
	return u.Comments[i], http.StatusOK
}

func (s *Server) deleteComment(b body) (any, int) {
	u, i := s.findComment(b.ID)
	if u == nil {
		return notFound("comment", b.ID)
	}
	u.Comments = slices.Delete(u.Comments, i, i+1)
	return map[string]string{"id": b.ID}, http.StatusOK
}

func (s *Server) toggleCommentLike(b body) (any, int) {
	u, i := s.findComment(b.CommentID)
	if u == nil {
		return notFound("comment", b.CommentID)
	}
	c := &u.Comments[i]
	toggle(&c.Likes, &c.HasLiked)
	return c, http.StatusOK
}

func (s *Server) toggleUpdateLike(b body) (any, int) {
	u := s.findUpdate(b.UpdateID)
	if u == nil {
		return notFound("update", b.UpdateID)
	}
	toggle(&u.Likes, &u.HasLiked)
	return u, http.StatusOK
}

func toggle(count *feed.Count, liked *bool) {
	if *liked {
		count.Data--
	} else {
		count.Data++
	}
	*liked = !*liked
}
