// Package middleware provides observability middleware for the mutation
// executor.
//
// # OpenTelemetry
//
// OpenTelemetry wraps each remote write in a client span carrying the entity
// kind, id, operation and endpoint:
//
//	exec := mutation.Chain(client,
//	    middleware.OpenTelemetry(middleware.WithTracerName("my-app")),
//	)
//
// # Prometheus
//
// NewMetrics registers the feed collectors. Its Middleware records every
// write, ObserveInvalidation plugs into the invalidation orchestrator and
// ObserveIndicators counts status indicators:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("goalfeed"))
//	exec := mutation.Chain(client, m.Middleware())
//	orch := invalidate.New(store, invalidate.WithObserver(m.ObserveInvalidation))
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
