package tracedsvc

import (
	"errors"

	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// knownPropagators lists the propagator names supported by this package.
var knownPropagators = map[string]bool{
	"tracecontext": true,
	"baggage":      true,
	"b3":           true,
	"b3multi":      true,
	"none":         true,
}

// NewPropagator returns the propagator described by cfg.
// A nil cfg yields the default b3multi,tracecontext,baggage composite.
func NewPropagator(cfg *PropConfig) propagation.TextMapPropagator {
	return buildPropagator(cfg)
}

// buildPropagator creates a text map propagator based on configuration.
// Supports the OTEL_PROPAGATORS values tracecontext, baggage, b3 and b3multi.
// Unknown propagator names are reported via otel.Handle and ignored.
//
// Every B3 propagator extracts both the single and the multi header form;
// the name only selects the injected encoding.
func buildPropagator(cfg *PropConfig) propagation.TextMapPropagator {
	if cfg == nil {
		cfg = &PropConfig{Propagators: defaultPropagators}
	}

	for _, name := range splitPropagators(cfg.effective()) {
		if !knownPropagators[name] {
			otel.Handle(errors.New("tracedsvc: unknown propagator \"" + name + "\" in OTEL_PROPAGATORS, ignoring"))
		}
	}

	var propagators []propagation.TextMapPropagator

	if cfg.HasB3Multi() {
		propagators = append(propagators, b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader)))
	}
	if cfg.HasB3() {
		propagators = append(propagators, b3.New(b3.WithInjectEncoding(b3.B3SingleHeader)))
	}
	if cfg.HasTraceContext() {
		propagators = append(propagators, propagation.TraceContext{})
	}
	if cfg.HasBaggage() {
		propagators = append(propagators, propagation.Baggage{})
	}

	return propagation.NewCompositeTextMapPropagator(propagators...)
}
