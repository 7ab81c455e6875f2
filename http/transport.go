package http

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TransportWithProviders wraps an http.RoundTripper with OTel tracing
// using explicitly provided TracerProvider, MeterProvider, and TextMapPropagator.
//
// Each round trip opens a client span that is a child of the span in the
// request context, injects that span's context into the outgoing headers, and
// ends when the response body is closed or the call fails.
//
// If any provider is nil, a no-op provider (or the default propagator) is used.
// If base is nil, http.DefaultTransport is used.
//
// Usage:
//
//	client := &http.Client{
//	    Transport: tracedhttp.TransportWithProviders(
//	        http.DefaultTransport,
//	        tracerProvider,
//	        meterProvider,
//	        propagator,
//	    ),
//	}
func TransportWithProviders(
	base http.RoundTripper,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
	opts ...otelhttp.Option,
) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	allOpts := buildProviderOptions(tp, mp, prop)
	allOpts = append(allOpts, opts...)

	return otelhttp.NewTransport(base, allOpts...)
}
