// Package tracedsvc provides the config-driven telemetry layer of the traced
// demo service: providers, exporters, propagation and logging.
//
// # Overview
//
// The package wraps official OTel APIs, providing:
//   - A Zipkin trace exporter fed by a batch span processor (OTLP and console are alternatives)
//   - Config-driven sampling (OTel standard: always_on, always_off, traceidratio, parentbased_*)
//   - B3, W3C TraceContext and Baggage propagation (OTEL_PROPAGATORS)
//   - Optional metrics (OTLP push or Prometheus pull) and an OTel log bridge for zap
//   - An explicit [Tracer] with span kind helpers and a pluggable [SpanNamer]
//
// Nothing is registered globally. [NewTelemetry] returns a [Telemetry] value
// that main constructs once and passes to the HTTP service, the outbound
// client and the event publisher.
//
// # Quick Start
//
//	cfg, err := tracedsvc.LoadConfig("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tel, err := tracedsvc.NewTelemetry(ctx, &cfg.Telemetry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//
//	tracer := tel.Tracer("users")
//	ctx, span := tracer.Start(ctx, "relay user")
//	defer span.End()
//
// # Configuration
//
// Configure via YAML or environment variables (OTel standard plus the
// TRACING_* variables of the Zipkin collector):
//
//	telemetry:
//	  serviceName: "Node.js"      # OTEL_SERVICE_NAME
//	  zipkin:
//	    host: "tracing-server"    # TRACING_HOST
//	    port: 9411                # TRACING_PORT
//	  traces:
//	    exporter: "zipkin"        # OTEL_TRACES_EXPORTER
//	    sampling:
//	      sampler: "parentbased_always_on"  # OTEL_TRACES_SAMPLER
//	  propagation:
//	    propagators: "b3multi,tracecontext,baggage"  # OTEL_PROPAGATORS
//
// # Subpackages
//
//   - http: server middleware, client transport and resty client
//   - grpc: server and client stats handlers
//   - nats: traced JetStream publisher
//   - service: the demo HTTP service
package tracedsvc
