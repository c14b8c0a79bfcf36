package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/goalfeed/pkg/cache"
	"github.com/vango-dev/goalfeed/pkg/feed"
	"github.com/vango-dev/goalfeed/pkg/loop"
	"github.com/vango-dev/goalfeed/pkg/stream"
)

func watchCmd(flags *globalFlags) *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the feed and serve status indicators",
		Long: `Poll the aggregate feed and announce new updates.

Announcements and the status of every request are pushed to websocket
clients on /status. /status/active returns the visible indicators and
/metrics exposes the client metrics.

Examples:
  goalfeed watch
  goalfeed watch --addr :7070 --interval 10s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			lp := loop.New(256, nil)
			s, err := flags.open(cmd, feed.WithLoop(lp))
			if err != nil {
				return err
			}
			defer s.close()

			if addr == "" {
				addr = s.cfg.Stream.Addr
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return runWatch(ctx, s, ln, interval)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Status server address (default stream.addr)")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "How often to refresh the feed")

	return cmd
}

// runWatch serves the status stream on ln and refreshes the aggregate feed
// every interval until ctx is done.
func runWatch(ctx context.Context, s *session, ln net.Listener, interval time.Duration) error {
	status := stream.New(s.feed.Channel(), s.feed.Registry(), stream.Config{Logger: s.logger})
	srv := &http.Server{Handler: status}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go s.feed.Run(ctx)

	all := s.feed.AllUpdates()
	defer all.Close()

	seen := make(map[string]bool)
	if err := all.Load(ctx); err != nil {
		warn(s.out, "initial load failed: %v", err)
	}
	for _, u := range all.Data() {
		seen[u.ID] = true
	}
	// Refetches apply on the loop, after the initial load.
	all.OnChange(func(updates []feed.Update) {
		for _, u := range updates {
			if seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			s.feed.Channel().Info("New update from " + u.PostedBy.DisplayName())
		}
	})

	info(s.out, "Serving status on http://%s/status", ln.Addr())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			status.Close()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			status.Close()
			return err
		case <-ticker.C:
			s.feed.Store().Invalidate(cache.AllUpdates())
		}
	}
}
