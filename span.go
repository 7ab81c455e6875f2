package tracedsvc

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer starts spans with a SpanNamer applied to operation names.
// It is built from an explicit TracerProvider and passed to whatever
// creates spans; there is no package-level tracer.
type Tracer struct {
	tracer trace.Tracer
	namer  SpanNamer
}

// NewTracer returns a Tracer named name from tp.
// A nil tp yields a no-op tracer and a nil namer yields DefaultNamer.
func NewTracer(tp trace.TracerProvider, name string, namer SpanNamer) *Tracer {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	if namer == nil {
		namer = DefaultNamer{}
	}

	return &Tracer{tracer: tp.Tracer(name), namer: namer}
}

// Start begins a new span with the configured namer applied.
func (t *Tracer) Start(ctx context.Context, operation string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, t.namer.Name(operation), opts...)
}

// StartProducer begins a new producer span (e.g., publishing a message to NATS).
func (t *Tracer) StartProducer(ctx context.Context, operation string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append([]trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindProducer)}, opts...)
	return t.Start(ctx, operation, opts...)
}

// TraceID returns the trace ID from context, or empty string if none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}

// SpanID returns the span ID from context, or empty string if none.
func SpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasSpanID() {
		return sc.SpanID().String()
	}

	return ""
}

// RecordError records an error on the current span and sets status.
// If err is nil, this is a no-op.
func RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSuccess marks the current span as successful.
func SetSuccess(ctx context.Context) {
	trace.SpanFromContext(ctx).SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
