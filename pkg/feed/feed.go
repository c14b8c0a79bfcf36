package feed

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/goalfeed/internal/config"
	"github.com/vango-dev/goalfeed/pkg/cache"
	"github.com/vango-dev/goalfeed/pkg/editable"
	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/invalidate"
	"github.com/vango-dev/goalfeed/pkg/likes"
	"github.com/vango-dev/goalfeed/pkg/loop"
	"github.com/vango-dev/goalfeed/pkg/middleware"
	"github.com/vango-dev/goalfeed/pkg/mutation"
	"github.com/vango-dev/goalfeed/pkg/toast"
)

// Feed is the client core of one signed-in (or anonymous) session: the
// mutation pipeline, the shared view cache and the status channel.
type Feed struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	loop     *loop.Loop
	disp     loop.Dispatcher
	channel  *toast.Channel
	notifier *toast.Notifier
	client   *mutation.Client
	runner   *mutation.Runner
	store    *cache.Store
	orch     *invalidate.Orchestrator
	metrics  *middleware.Metrics
	registry *prometheus.Registry
	prompter likes.Prompter
}

// Option configures a Feed.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	httpClient     *http.Client
	registry       *prometheus.Registry
	tracerProvider trace.TracerProvider
	loop           *loop.Loop
	prompter       likes.Prompter
	afterFunc      toast.AfterFunc
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHTTPClient sets the HTTP client used for reads and writes.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithRegistry registers the feed metrics with reg instead of a private
// registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithTracerProvider sets the tracer provider of the write spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithLoop applies settlements on l instead of inline. The caller runs it,
// usually through Feed.Run.
func WithLoop(l *loop.Loop) Option {
	return func(o *options) {
		o.loop = l
	}
}

// WithPrompter sets how anonymous viewers are asked to sign in.
func WithPrompter(p likes.Prompter) Option {
	return func(o *options) {
		o.prompter = p
	}
}

// WithAfterFunc replaces the auto-dismiss timer source.
func WithAfterFunc(fn toast.AfterFunc) Option {
	return func(o *options) {
		o.afterFunc = fn
	}
}

// New builds a feed from cfg.
func New(cfg *config.Config, opts ...Option) *Feed {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.httpClient == nil {
		o.httpClient = http.DefaultClient
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	f := &Feed{
		baseURL:  cfg.API.BaseURL,
		http:     o.httpClient,
		logger:   o.logger,
		loop:     o.loop,
		registry: o.registry,
		prompter: o.prompter,
	}
	if f.prompter == nil {
		f.prompter = likes.PrompterFunc(func(subject entity.Ref) {
			f.logger.Info("sign in to like", "subject", subject.String())
		})
	}
	f.disp = &loop.Inline{}
	if o.loop != nil {
		f.disp = o.loop
	}

	chOpts := []toast.ChannelOption{toast.WithDismissAfter(cfg.DismissAfter())}
	if o.afterFunc != nil {
		chOpts = append(chOpts, toast.WithAfterFunc(o.afterFunc))
	}
	f.channel = toast.NewChannel(chOpts...)
	f.notifier = toast.NewNotifier(f.channel, toast.WithLogger(o.logger))

	f.metrics = middleware.NewMetrics(
		middleware.WithNamespace(cfg.Metrics.Namespace),
		middleware.WithRegistry(o.registry),
	)
	f.metrics.ObserveIndicators(f.channel)

	routes := mutation.DefaultRoutes().With(cfg.API.Routes)
	f.client = mutation.NewClient(cfg.API.BaseURL,
		mutation.WithHTTPClient(o.httpClient),
		mutation.WithRoutes(routes),
	)
	exec := mutation.Chain(f.client,
		middleware.OpenTelemetry(
			middleware.WithTracerProvider(o.tracerProvider),
			middleware.WithRoutes(routes),
		),
		f.metrics.Middleware(),
		mutation.Logging(o.logger),
	)
	f.runner = mutation.NewRunner(exec, f.disp)

	f.store = cache.NewStore(
		cache.WithLogger(o.logger),
		cache.WithDispatcher(f.disp),
	)
	f.registerFetchers()
	f.orch = invalidate.New(f.store,
		invalidate.WithLogger(o.logger),
		invalidate.WithObserver(f.metrics.ObserveInvalidation),
	)
	return f
}

// Run drives the event loop until ctx is done. It returns at once when the
// feed settles inline.
func (f *Feed) Run(ctx context.Context) {
	if f.loop != nil {
		f.loop.Run(ctx)
	}
}

// Wait blocks until every started mutation has settled and every background
// refetch has finished. With a loop, queued settlements are drained first.
func (f *Feed) Wait() {
	f.runner.Wait()
	if f.loop != nil {
		f.loop.Drain()
	}
	f.store.Wait()
	if f.loop != nil {
		f.loop.Drain()
	}
}

// Close discards indicators of mutations that will never settle and stops
// the loop.
func (f *Feed) Close() {
	if n := f.notifier.DiscardAll(); n > 0 {
		f.logger.Debug("discarded pending indicators", "count", n)
	}
	if f.loop != nil {
		f.loop.Close()
	}
}

// Channel returns the status indicator channel.
func (f *Feed) Channel() *toast.Channel { return f.channel }

// Store returns the shared view cache.
func (f *Feed) Store() *cache.Store { return f.store }

// Registry returns the registry holding the feed metrics.
func (f *Feed) Registry() *prometheus.Registry { return f.registry }

// Runner returns the mutation runner.
func (f *Feed) Runner() *mutation.Runner { return f.runner }

// AllUpdates watches the aggregate feed.
func (f *Feed) AllUpdates() *cache.View[[]Update] {
	return cache.Watch[[]Update](f.store, cache.AllUpdates())
}

// RecentUpdates watches the recent updates of goalID.
func (f *Feed) RecentUpdates(goalID string) *cache.View[[]Update] {
	return cache.Watch[[]Update](f.store, cache.RecentUpdatesByGoal(goalID))
}

// GoalsByUser watches the goals, with their updates, of userID.
func (f *Feed) GoalsByUser(userID string) *cache.View[[]Goal] {
	return cache.Watch[[]Goal](f.store, cache.GoalUpdatesByUser(userID))
}

// Like returns the optimistic like toggle of subject.
func (f *Feed) Like(subject entity.Ref, initial likes.State, viewer entity.Identity, scope *loop.Scope) *likes.Toggle {
	return likes.NewToggle(subject, initial, viewer, likes.Deps{
		Runner:   f.runner,
		Notifier: f.notifier,
		Prompter: f.prompter,
		Scope:    scope,
	})
}

// Editor returns the edit and delete lifecycle of item.
func (f *Feed) Editor(item editable.Item, viewer entity.Identity, scope *loop.Scope, opts ...editable.Option) *editable.Editor {
	return editable.NewEditor(item, viewer, f.editableDeps(scope), opts...)
}

// UpdateComposer returns a composer for new updates on goalID.
func (f *Feed) UpdateComposer(goalID string, viewer entity.Identity, scope *loop.Scope, opts ...editable.Option) *editable.Composer {
	return editable.NewUpdateComposer(goalID, viewer, f.editableDeps(scope), opts...)
}

// CommentComposer returns a composer for new comments on u.
func (f *Feed) CommentComposer(u Update, viewer entity.Identity, scope *loop.Scope, opts ...editable.Option) *editable.Composer {
	return editable.NewCommentComposer(u.ID, u.GoalID, viewer, f.editableDeps(scope), opts...)
}

func (f *Feed) editableDeps(scope *loop.Scope) editable.Deps {
	return editable.Deps{
		Runner:      f.runner,
		Notifier:    f.notifier,
		Invalidator: f.orch,
		Logger:      f.logger,
		Scope:       scope,
	}
}

// Identity returns the viewer described by the configured identity.
func Identity(c config.IdentityConfig) entity.Identity {
	if c.Anonymous() {
		return entity.Anonymous{}
	}
	return entity.Authenticated{
		ID:        c.ID,
		Name:      c.Name,
		FirstName: c.FirstName,
		Image:     c.Image,
	}
}
