package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	ferrors "github.com/vango-dev/goalfeed/internal/errors"
	"github.com/vango-dev/goalfeed/pkg/editable"
	"github.com/vango-dev/goalfeed/pkg/feed"
	"github.com/vango-dev/goalfeed/pkg/feed/feedtest"
	"github.com/vango-dev/goalfeed/pkg/loop"
	"github.com/vango-dev/goalfeed/pkg/toast"
)

// syncBuffer is a bytes.Buffer safe for writes from the event loop.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func run(t *testing.T, api *feedtest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GOALFEED_TOAST_DISMISS_AFTER", "0s")
	t.Setenv("GOALFEED_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--base-url", api.URL))
	err := cmd.Execute()
	return out.String(), err
}

func newAPI(t *testing.T) (*feedtest.Server, feed.Update) {
	t.Helper()
	api := feedtest.NewServer(t)
	api.AddGoal("g1", "Run a marathon")
	return api, api.AddUpdate("g1", "signed up")
}

func TestPostCommand(t *testing.T) {
	api, _ := newAPI(t)

	out, err := run(t, api, "post", "--goal", "g1", "--user", "u1", "ran", "10k")
	if err != nil {
		t.Fatalf("post: %v\n%s", err, out)
	}
	for _, want := range []string{"Posting your update...", "Posted your update!!", "update id:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := api.Writes("/api/fauna/goals/create-update"); got != 1 {
		t.Fatalf("create-update writes = %d, want 1", got)
	}
}

func TestPostRequiresGoal(t *testing.T) {
	api, _ := newAPI(t)
	if _, err := run(t, api, "post", "--user", "u1", "hello"); err == nil {
		t.Fatal("post without --goal succeeded")
	}
	if api.TotalWrites() != 0 {
		t.Fatalf("writes = %d", api.TotalWrites())
	}
}

func TestPostEmptyTextIsRejectedLocally(t *testing.T) {
	api, _ := newAPI(t)
	_, err := run(t, api, "post", "--goal", "g1", "--user", "u1", "   ")
	if !errors.Is(err, ferrors.ErrValidationFailed) {
		t.Fatalf("err = %v, want validation failure", err)
	}
	if api.TotalWrites() != 0 {
		t.Fatalf("writes = %d, want 0", api.TotalWrites())
	}
}

func TestFailedRequestExitsWithError(t *testing.T) {
	api, _ := newAPI(t)
	api.FailNext("/api/fauna/goals/create-update", 1)

	out, err := run(t, api, "post", "--goal", "g1", "--user", "u1", "ran 10k")
	if !errors.Is(err, ferrors.ErrMutationFailed) {
		t.Fatalf("err = %v, want mutation failure", err)
	}
	if !strings.Contains(out, toast.FailureMessage) {
		t.Fatalf("output missing failure indicator:\n%s", out)
	}
}

func TestCommentCommand(t *testing.T) {
	api, u := newAPI(t)

	out, err := run(t, api, "comment", "--user", "u1", u.ID, "great", "pace")
	if err != nil {
		t.Fatalf("comment: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Posted your comment!!") {
		t.Fatalf("output:\n%s", out)
	}
	stored, _ := api.Update(u.ID)
	if len(stored.Comments) != 1 || stored.Comments[0].Description != "great pace" {
		t.Fatalf("comments = %+v", stored.Comments)
	}
}

func TestEditUpdateCommand(t *testing.T) {
	api, u := newAPI(t)

	out, err := run(t, api, "edit", "update", u.ID, "--user", "u1", "signed up for Berlin")
	if err != nil {
		t.Fatalf("edit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "You have successfully edited the update.") {
		t.Fatalf("output:\n%s", out)
	}
	stored, _ := api.Update(u.ID)
	if stored.Description != "signed up for Berlin" {
		t.Fatalf("description = %q", stored.Description)
	}
}

func TestEditByStrangerIsRefused(t *testing.T) {
	api, u := newAPI(t)

	_, err := run(t, api, "edit", "update", u.ID, "--user", "u2", "mine now")
	if !errors.Is(err, editable.ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
	if api.TotalWrites() != 0 {
		t.Fatalf("writes = %d", api.TotalWrites())
	}
}

func TestDeleteCommentCommand(t *testing.T) {
	api, u := newAPI(t)
	c := api.AddComment(u.ID, "nice")

	out, err := run(t, api, "delete", "comment", c.ID, "--user", "u1")
	if err != nil {
		t.Fatalf("delete: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Deleted your comment!!") {
		t.Fatalf("output:\n%s", out)
	}
	stored, _ := api.Update(u.ID)
	if len(stored.Comments) != 0 {
		t.Fatalf("comments = %+v", stored.Comments)
	}
}

func TestUnknownIDIsNotFound(t *testing.T) {
	api, _ := newAPI(t)
	_, err := run(t, api, "delete", "update", "nope", "--user", "u1")
	if !errors.Is(err, ferrors.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestUnknownKind(t *testing.T) {
	api, u := newAPI(t)
	_, err := run(t, api, "like", "goal", u.ID, "--user", "u1")
	if !errors.Is(err, ferrors.ErrValidationFailed) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLikeCommandToggles(t *testing.T) {
	api, u := newAPI(t)

	out, err := run(t, api, "like", "update", u.ID, "--user", "u1")
	if err != nil {
		t.Fatalf("like: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Liked!") || !strings.Contains(out, "1 likes") {
		t.Fatalf("output:\n%s", out)
	}

	out, err = run(t, api, "like", "update", u.ID, "--user", "u1")
	if err != nil {
		t.Fatalf("unlike: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Like removed") || !strings.Contains(out, "0 likes") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestAnonymousLikeIsPrompted(t *testing.T) {
	api, u := newAPI(t)
	t.Setenv("GOALFEED_USER_ID", "")

	out, err := run(t, api, "like", "update", u.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !strings.Contains(out, "Sign in to like this update") {
		t.Fatalf("output:\n%s", out)
	}
	if api.TotalWrites() != 0 {
		t.Fatalf("writes = %d", api.TotalWrites())
	}
}

func TestListCommand(t *testing.T) {
	api, u := newAPI(t)
	api.AddComment(u.ID, "nice")

	out, err := run(t, api, "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, u.ID) || !strings.Contains(out, "signed up") || !strings.Contains(out, "nice") {
		t.Fatalf("output:\n%s", out)
	}

	out, err = run(t, api, "list", "--user-goals", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Run a marathon") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestEnvCommand(t *testing.T) {
	api, _ := newAPI(t)
	out, err := run(t, api, "env")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "GOALFEED_API_BASE_URL") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestVersionShort(t *testing.T) {
	api, _ := newAPI(t)
	out, err := run(t, api, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Fatalf("output = %q", out)
	}
}

func TestWatchAnnouncesNewUpdates(t *testing.T) {
	api, _ := newAPI(t)
	t.Setenv("GOALFEED_TOAST_DISMISS_AFTER", "0s")
	t.Setenv("GOALFEED_LOG_LEVEL", "error")

	out := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	flags := &globalFlags{baseURL: api.URL, user: "u1"}
	s, err := flags.open(cmd, feed.WithLoop(loop.New(64, nil)))
	if err != nil {
		t.Fatal(err)
	}
	defer s.close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, s, ln, 10*time.Millisecond) }()

	waitFor(t, func() bool { return strings.Contains(out.String(), "Serving status") })
	if strings.Contains(out.String(), "New update") {
		t.Fatal("existing updates announced")
	}

	api.AddUpdate("g1", "ran 5k")
	waitFor(t, func() bool { return strings.Contains(out.String(), "New update from user-u1") })

	resp, err := http.Get("http://" + ln.Addr().String() + "/status/active")
	if err != nil {
		t.Fatal(err)
	}
	var active []toast.Indicator
	err = json.NewDecoder(resp.Body).Decode(&active)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].Message != "New update from user-u1" {
		t.Fatalf("active = %+v", active)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runWatch() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runWatch did not stop")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
