package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultName = "minishop-cart"

type tracer struct{ t trace.Tracer }

// New returns a tracer from the global provider. Until otel.SetTracerProvider
// is called, spans are non-recording.
func New(name string) observability.Tracer {
	if name == "" {
		name = defaultName
	}
	return &tracer{t: otel.Tracer(name)}
}

// FromProvider is New with an explicit provider, for tests and custom SDK setups.
func FromProvider(tp trace.TracerProvider, name string) observability.Tracer {
	if name == "" {
		name = defaultName
	}
	return &tracer{t: tp.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
