package main

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/vango-dev/goalfeed/internal/config"
	"github.com/vango-dev/goalfeed/internal/errors"
	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/feed"
	"github.com/vango-dev/goalfeed/pkg/likes"
	"github.com/vango-dev/goalfeed/pkg/toast"
)

type globalFlags struct {
	configPath string
	baseURL    string
	user       string
}

// loadConfig reads the configuration and applies command-line overrides.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	if g.baseURL != "" {
		cfg.API.BaseURL = g.baseURL
	}
	if g.user != "" {
		cfg.Identity.ID = g.user
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is one command's feed together with the indicators it showed.
type session struct {
	cfg    *config.Config
	feed   *feed.Feed
	viewer entity.Identity
	out    io.Writer
	logger *slog.Logger

	mu       sync.Mutex
	failures int
	unsub    func()
}

func (g *globalFlags) open(cmd *cobra.Command, opts ...feed.Option) (*session, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		viewer: feed.Identity(cfg.Identity),
		out:    cmd.OutOrStdout(),
		logger: cfg.Logger(cmd.ErrOrStderr()),
	}
	opts = append([]feed.Option{
		feed.WithLogger(s.logger),
		feed.WithPrompter(likes.PrompterFunc(func(subject entity.Ref) {
			warn(s.out, "Sign in to like this %s (set identity.id or --user)", subject.Kind)
		})),
	}, opts...)
	s.feed = feed.New(cfg, opts...)
	s.unsub = s.feed.Channel().Subscribe(s.print)
	return s, nil
}

// print renders status indicators as they change.
func (s *session) print(ev toast.Event) {
	if ev.Action != toast.ActionShow {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ind := ev.Indicator
	switch ind.Phase {
	case toast.PhasePending:
		info(s.out, "%s", ind.Message)
	case toast.PhaseSuccess:
		success(s.out, "%s", ind.Message)
	case toast.PhaseFailure:
		s.failures++
		errorMsg(s.out, "%s", ind.Message)
	}
}

// finish waits for every mutation and refetch to settle and reports whether
// any mutation failed.
func (s *session) finish() error {
	s.feed.Wait()
	s.unsub()
	s.feed.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		return errors.Mutation(fmt.Sprintf("%d request(s) failed", s.failures))
	}
	return nil
}

// close releases the session without waiting for a verdict.
func (s *session) close() {
	s.unsub()
	s.feed.Close()
}

func parseKind(arg string) (entity.Kind, error) {
	switch arg {
	case "update", "updates":
		return entity.KindUpdate, nil
	case "comment", "comments":
		return entity.KindComment, nil
	}
	return 0, errors.Validation("kind", fmt.Sprintf("expected \"update\" or \"comment\", got %q", arg))
}
