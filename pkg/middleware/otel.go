package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/goalfeed/pkg/entity"
	"github.com/vango-dev/goalfeed/pkg/mutation"
)

const defaultTracerName = "goalfeed"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "goalfeed").
	TracerName string

	// TracerProvider supplies the tracer. Default: otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// IncludeRoute records the endpoint path of the write.
	// Enabled by default.
	IncludeRoute bool

	// Routes resolves descriptors to endpoint paths for IncludeRoute.
	Routes mutation.Routes

	// Filter determines which descriptors to trace.
	// If nil, all mutations are traced.
	Filter func(d entity.Descriptor) bool

	// AttributeExtractor adds custom attributes per mutation.
	AttributeExtractor func(d entity.Descriptor) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeRoute enables/disables recording the endpoint path.
func WithIncludeRoute(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeRoute = include
	}
}

// WithRoutes sets the route table used to name endpoints.
func WithRoutes(r mutation.Routes) OTelOption {
	return func(c *OTelConfig) {
		c.Routes = r
	}
}

// WithMutationFilter sets a filter function for descriptors.
func WithMutationFilter(filter func(d entity.Descriptor) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(d entity.Descriptor) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:   defaultTracerName,
		IncludeRoute: true,
		Routes:       mutation.DefaultRoutes(),
	}
}

// OpenTelemetry creates middleware that wraps every remote write in a client
// span. The span's context is passed down, so the HTTP request inherits it.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given. Configure it in main() before building the feed:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) mutation.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return func(next mutation.Executor) mutation.Executor {
		return mutation.ExecutorFunc(func(ctx context.Context, d entity.Descriptor) mutation.Outcome {
			if config.Filter != nil && !config.Filter(d) {
				return next.Execute(ctx, d)
			}

			attrs := []attribute.KeyValue{
				attribute.String("goalfeed.entity.kind", d.Entity.Kind.String()),
				attribute.String("goalfeed.entity.id", d.Entity.ID),
				attribute.String("goalfeed.operation", d.Operation.String()),
			}
			if d.Subject != nil {
				attrs = append(attrs, attribute.String("goalfeed.subject", d.Subject.String()))
			}
			if config.IncludeRoute {
				if path, ok := config.Routes.Lookup(d); ok {
					attrs = append(attrs, attribute.String("goalfeed.route", path))
				}
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(d)...)
			}

			spanCtx, span := tracer.Start(ctx, spanName(d),
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			out := next.Execute(spanCtx, d)
			if out.Err != nil {
				span.RecordError(out.Err)
				span.SetStatus(codes.Error, out.Err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return out
		})
	}
}

func spanName(d entity.Descriptor) string {
	return fmt.Sprintf("goalfeed %s", mutation.RouteName(d))
}
