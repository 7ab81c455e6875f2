package http

import (
	"net/http"

	"github.com/arloliu/tracedsvc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Middleware returns middleware that traces HTTP requests with the providers
// and propagator of tel.
//
// Usage:
//
//	handler := tracedhttp.Middleware(tel)(router)
func Middleware(tel *tracedsvc.Telemetry, opts ...otelhttp.Option) func(http.Handler) http.Handler {
	return MiddlewareWithProviders(tel.TracerProvider, tel.MeterProvider, tel.Propagator, opts...)
}

// MiddlewareWithProviders returns middleware that traces HTTP requests
// using explicitly provided TracerProvider, MeterProvider, and TextMapPropagator.
//
// Every request produces one server span named "METHOD /path". Incoming
// trace context is extracted with prop; without one a new root is started and
// the sampler decides. The span carries http.path and http.url in addition to
// the otelhttp semantic convention attributes.
//
// If any provider is nil, a no-op provider (or the default propagator) is used.
//
// Usage:
//
//	http.Handle("/", tracedhttp.MiddlewareWithProviders(
//	    tracerProvider,
//	    meterProvider,
//	    propagator,
//	)(myHandler))
func MiddlewareWithProviders(
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
	opts ...otelhttp.Option,
) func(http.Handler) http.Handler {
	allOpts := buildProviderOptions(tp, mp, prop)
	allOpts = append(allOpts, otelhttp.WithSpanNameFormatter(serverSpanName))
	allOpts = append(allOpts, opts...)

	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(annotate(next), "http.request", allOpts...)
	}
}

// Route returns mux-style middleware that records the matched route template
// on the active server span.
//
// Usage:
//
//	router.Use(tracedhttp.Route(func(r *http.Request) string {
//	    tpl, _ := mux.CurrentRoute(r).GetPathTemplate()
//	    return tpl
//	}))
func Route(template func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if route := template(r); route != "" {
				trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("http.route", route))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func serverSpanName(_ string, r *http.Request) string {
	return tracedsvc.NameHTTP(r.Method, r.URL.Path)
}

// annotate adds the request path and URL to the server span.
func annotate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace.SpanFromContext(r.Context()).SetAttributes(
			attribute.String("http.path", r.URL.Path),
			attribute.String("http.url", r.URL.String()),
		)
		next.ServeHTTP(w, r)
	})
}

// buildProviderOptions creates otelhttp.Option slice from providers.
// Falls back to no-op providers and the default propagator when nil.
func buildProviderOptions(
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
) []otelhttp.Option {
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	if prop == nil {
		prop = tracedsvc.NewPropagator(nil)
	}

	return []otelhttp.Option{
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithMeterProvider(mp),
		otelhttp.WithPropagators(prop),
	}
}
