package grpc

import (
	"github.com/arloliu/tracedsvc"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/stats"
)

// ServerHandler returns a gRPC stats.Handler for server-side tracing and
// metrics using the providers and propagator of tel.
func ServerHandler(tel *tracedsvc.Telemetry, opts ...otelgrpc.Option) stats.Handler {
	return ServerHandlerWithProviders(tel.TracerProvider, tel.MeterProvider, tel.Propagator, opts...)
}

// ServerHandlerWithProviders returns a gRPC stats.Handler for server-side
// tracing and metrics with explicitly provided TracerProvider, MeterProvider,
// and TextMapPropagator.
//
// If any provider is nil, a no-op provider (or the default propagator) is used.
func ServerHandlerWithProviders(
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
	opts ...otelgrpc.Option,
) stats.Handler {
	allOpts := buildProviderOptions(tp, mp, prop)
	allOpts = append(allOpts, opts...)

	return otelgrpc.NewServerHandler(allOpts...)
}

// buildProviderOptions creates otelgrpc.Option slice from providers.
func buildProviderOptions(
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
) []otelgrpc.Option {
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	if prop == nil {
		prop = tracedsvc.NewPropagator(nil)
	}

	return []otelgrpc.Option{
		otelgrpc.WithTracerProvider(tp),
		otelgrpc.WithMeterProvider(mp),
		otelgrpc.WithPropagators(prop),
	}
}
