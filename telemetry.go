package tracedsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	otellog "go.opentelemetry.io/otel/log"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry bundles the providers and propagator a process reports through.
// It is built once in main and handed to every component that creates spans,
// records metrics or propagates context.
type Telemetry struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	LoggerProvider otellog.LoggerProvider
	Propagator     propagation.TextMapPropagator

	registry  *prometheus.Registry
	shutdowns []func(context.Context) error
}

// NewTelemetry builds the providers described by cfg.
//
// Disabled subsystems are backed by no-op providers, so callers never need to
// nil-check. The propagator is always built: a service with export switched
// off still continues inbound traces on its outbound calls.
func NewTelemetry(ctx context.Context, cfg *TelemetryConfig) (*Telemetry, error) {
	tel := &Telemetry{
		TracerProvider: tracenoop.NewTracerProvider(),
		MeterProvider:  metricnoop.NewMeterProvider(),
		LoggerProvider: lognoop.NewLoggerProvider(),
		Propagator:     buildPropagator(propConfig(cfg)),
	}

	if !cfg.IsEnabled() {
		return tel, nil
	}

	tp, err := NewTracerProvider(ctx, cfg)
	switch {
	case err == nil:
		tel.TracerProvider = tp
		tel.shutdowns = append(tel.shutdowns, tp.Shutdown)
	case !errors.Is(err, ErrDisabled):
		return nil, fmt.Errorf("tracer provider: %w", err)
	}

	mp, registry, err := NewMeterProvider(ctx, cfg)
	switch {
	case err == nil:
		tel.MeterProvider = mp
		tel.registry = registry
		tel.shutdowns = append(tel.shutdowns, mp.Shutdown)
	case !errors.Is(err, ErrMetricsDisabled):
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("meter provider: %w", err)
	}

	if cfg.Metrics.RuntimeEnabled() {
		if err := runtime.Start(runtime.WithMeterProvider(tel.MeterProvider)); err != nil {
			_ = tel.Shutdown(ctx)
			return nil, fmt.Errorf("runtime metrics: %w", err)
		}
	}

	lp, err := NewLoggerProvider(ctx, cfg)
	switch {
	case err == nil:
		tel.LoggerProvider = lp
		tel.shutdowns = append(tel.shutdowns, lp.Shutdown)
	case !errors.Is(err, ErrLogsDisabled):
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("logger provider: %w", err)
	}

	return tel, nil
}

// NewTelemetryFromProviders wraps existing providers, typically test
// recorders. Nil arguments fall back to no-op implementations and the
// default propagator. The caller owns the providers' lifecycle.
func NewTelemetryFromProviders(tp trace.TracerProvider, mp metric.MeterProvider, prop propagation.TextMapPropagator) *Telemetry {
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	if prop == nil {
		prop = buildPropagator(nil)
	}

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		LoggerProvider: lognoop.NewLoggerProvider(),
		Propagator:     prop,
	}
}

// Tracer returns a Tracer for the named instrumentation scope.
func (t *Telemetry) Tracer(name string) *Tracer {
	return NewTracer(t.TracerProvider, name, DefaultNamer{})
}

// MetricsHandler returns the Prometheus scrape handler, or nil when the
// prometheus metrics exporter is not in use.
func (t *Telemetry) MetricsHandler() http.Handler {
	if t.registry == nil {
		return nil
	}

	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes every pending batch and stops the providers.
// Providers are shut down in reverse order of creation.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.shutdowns) - 1; i >= 0; i-- {
		if err := t.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdowns = nil

	return errors.Join(errs...)
}

func propConfig(cfg *TelemetryConfig) *PropConfig {
	if cfg == nil {
		return nil
	}

	return cfg.Propagation
}
