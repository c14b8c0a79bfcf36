package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	ferrors "github.com/vango-dev/goalfeed/internal/errors"
	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/mutation"
	"github.com/vango-dev/goalfeed/pkg/toast"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "goalfeed").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for mutation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "goalfeed",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the feed's Prometheus collectors.
type Metrics struct {
	mutationsTotal   *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	mutationErrors   *prometheus.CounterVec
	inFlight         prometheus.Gauge
	invalidations    *prometheus.CounterVec
	indicatorsShown  *prometheus.CounterVec
}

// NewMetrics registers the feed metrics with the configured registry.
//
// Metrics collected:
//   - goalfeed_mutations_total: Counter of settled mutations by kind, op and status
//   - goalfeed_mutation_duration_seconds: Histogram of remote write duration
//   - goalfeed_mutation_errors_total: Counter of failures by kind, op and error type
//   - goalfeed_mutations_in_flight: Gauge of writes that have not settled
//   - goalfeed_invalidated_views_total: Counter of views marked stale by kind and op
//   - goalfeed_indicators_shown_total: Counter of status indicators by phase
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total number of settled mutations",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "op", "status"}),

		mutationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutation_duration_seconds",
			Help:        "Remote write duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind", "op"}),

		mutationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutation_errors_total",
			Help:        "Total number of failed mutations by error type",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "op", "error_type"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_in_flight",
			Help:        "Number of remote writes that have not settled",
			ConstLabels: config.ConstLabels,
		}),

		invalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invalidated_views_total",
			Help:        "Total number of cached views marked stale after a mutation",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "op"}),

		indicatorsShown: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "indicators_shown_total",
			Help:        "Total number of status indicators shown by phase",
			ConstLabels: config.ConstLabels,
		}, []string{"phase"}),
	}
}

// Middleware returns mutation middleware that records every Execute.
func (m *Metrics) Middleware() mutation.Middleware {
	return func(next mutation.Executor) mutation.Executor {
		return mutation.ExecutorFunc(func(ctx context.Context, d entity.Descriptor) mutation.Outcome {
			kind, op := d.Entity.Kind.String(), d.Operation.String()

			m.inFlight.Inc()
			start := time.Now()
			out := next.Execute(ctx, d)
			m.inFlight.Dec()
			m.mutationDuration.WithLabelValues(kind, op).Observe(time.Since(start).Seconds())

			status := "success"
			if out.Err != nil {
				status = "error"
				m.mutationErrors.WithLabelValues(kind, op, categorizeError(out.Err)).Inc()
			}
			m.mutationsTotal.WithLabelValues(kind, op, status).Inc()
			return out
		})
	}
}

// ObserveInvalidation counts the views a successful mutation invalidated.
// Its signature matches invalidate.Observer.
func (m *Metrics) ObserveInvalidation(p entity.Pair, views int) {
	m.invalidations.WithLabelValues(p.Kind.String(), p.Op.String()).Add(float64(views))
}

// ObserveIndicators counts every indicator shown on ch until the returned
// function is called.
func (m *Metrics) ObserveIndicators(ch *toast.Channel) func() {
	return ch.Subscribe(func(ev toast.Event) {
		if ev.Action == toast.ActionShow {
			m.indicatorsShown.WithLabelValues(ev.Indicator.Phase.String()).Inc()
		}
	})
}

// categorizeError returns a low-cardinality label for err.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ferrors.ErrValidationFailed):
		return "validation"
	case errors.Is(err, errUnknownRoute):
		return "unknown_route"
	case errors.Is(err, ferrors.ErrMutationFailed):
		return "remote"
	default:
		return "internal"
	}
}

var errUnknownRoute = &ferrors.FeedError{Code: ferrors.CodeUnknownRoute}
