// Package mutation executes single writes against the remote feed API.
//
// An Executor turns one entity.Descriptor into exactly one request and
// collapses the result into an Outcome: Success with the server's JSON body,
// or Failure with a MutationFailed error carrying the remote reason text.
// There is no retry; a failed write is only repeated by a new user action.
//
// Client is the HTTP Executor. Ambient concerns (logging, metrics, tracing)
// wrap it as Middleware:
//
//	exec := mutation.Chain(client,
//	    mutation.Logging(logger),
//	    middleware.Prometheus(),
//	)
//
// Runner executes descriptors off the event loop and applies each settlement
// back on it:
//
//	runner := mutation.NewRunner(exec, lp)
//	runner.Run(ctx, d, func(out mutation.Outcome) {
//	    if out.Succeeded() { ... }
//	})
package mutation
