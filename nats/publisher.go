package nats

import (
	"context"
	"strconv"

	"github.com/arloliu/tracedsvc"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// JetStream is the subset of jetstream.JetStream the publisher sends through.
type JetStream interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

var _ JetStream = (jetstream.JetStream)(nil)

// Publisher wraps JetStream publish operations with OpenTelemetry tracing.
type Publisher struct {
	js     JetStream
	tracer *tracedsvc.Tracer
	prop   propagation.TextMapPropagator
	opts   options
}

// NewPublisher creates a Publisher that traces with the providers and
// propagator of tel.
//
// Panics if js is nil.
func NewPublisher(js JetStream, tel *tracedsvc.Telemetry, opts ...Option) *Publisher {
	return NewPublisherWithProviders(js, tel.TracerProvider, tel.Propagator, opts...)
}

// NewPublisherWithProviders creates a Publisher with explicit providers.
// A nil tp yields no-op spans; a nil prop yields the default propagator.
//
// Panics if js is nil.
func NewPublisherWithProviders(
	js JetStream,
	tp trace.TracerProvider,
	prop propagation.TextMapPropagator,
	opts ...Option,
) *Publisher {
	if js == nil {
		panic("tracedsvc/nats: JetStream must not be nil")
	}
	o := applyOptions(opts)

	if prop == nil {
		prop = tracedsvc.NewPropagator(nil)
	}

	return &Publisher{
		js:     js,
		tracer: tracedsvc.NewTracer(tp, o.tracerName, nil),
		prop:   prop,
		opts:   o,
	}
}

// Publish publishes data on subject with tracing.
// A producer span is created and trace context is injected into message headers.
func (p *Publisher) Publish(
	ctx context.Context,
	subject string,
	data []byte,
	opts ...jetstream.PublishOpt,
) (*jetstream.PubAck, error) {
	return p.PublishMsg(ctx, &nats.Msg{Subject: subject, Data: data}, opts...)
}

// PublishMsg publishes a message with tracing.
// If msg.Header is nil, it will be initialized before injecting trace context.
func (p *Publisher) PublishMsg(
	ctx context.Context,
	msg *nats.Msg,
	opts ...jetstream.PublishOpt,
) (*jetstream.PubAck, error) {
	subject := msg.Subject

	ctx, span := p.tracer.StartProducer(ctx, tracedsvc.NameMessaging(opTypePublish, subject),
		trace.WithAttributes(publishAttributes(p.opts.stream, subject, "", len(msg.Data))...),
	)
	defer span.End()

	InjectNATS(ctx, msg, p.prop)

	ack, err := p.js.PublishMsg(ctx, msg, opts...)
	if err != nil {
		tracedsvc.RecordError(ctx, err)

		return nil, err
	}

	// Add message ID from ack if available
	if ack != nil {
		span.SetAttributes(publishAttributes(ack.Stream, subject, strconv.FormatUint(ack.Sequence, 10), 0)...)
	}

	return ack, nil
}
