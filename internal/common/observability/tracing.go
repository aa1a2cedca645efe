package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracing owns the tracer provider for the workflow client. When tracing
// is disabled it falls back to the global (noop) tracer.
type Tracing struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// Init configures a Jaeger-backed tracer provider. A failed exporter setup
// degrades to noop tracing rather than blocking startup.
func Init(serviceName, endpoint string, enabled bool) *Tracing {
	if !enabled {
		return &Tracing{tracer: otel.Tracer(serviceName)}
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return &Tracing{tracer: otel.Tracer(serviceName)}
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(provider)

	return &Tracing{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
	}
}

// StartSpan opens a span for one gateway operation.
func (t *Tracing) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if t == nil || t.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, name)
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown() {
	if t != nil && t.provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.provider.Shutdown(ctx)
	}
}
