//revive:disable:line-length-limit
package tracedsvc

import (
	"net"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration of the traced service.
type Config struct {
	// Service configures the HTTP surface and its downstream targets.
	Service ServiceConfig `yaml:"service"`

	// Telemetry configures tracing, metrics, log export and propagation.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Log configures the local zap logger.
	Log LogConfig `yaml:"log"`

	// Events configures the optional NATS user event publisher.
	Events EventsConfig `yaml:"events"`
}

// ServiceConfig configures the HTTP service and the downstream calls it makes.
type ServiceConfig struct {
	// Address is the listen address of the HTTP server.
	Address string `yaml:"address" env:"SERVICE_ADDRESS" default:"0.0.0.0:3001" validate:"required"`

	// GRPCAddress is the listen address of the gRPC health server.
	// The health server is disabled when empty.
	GRPCAddress string `yaml:"grpcAddress" env:"SERVICE_GRPC_ADDRESS"`

	// PathPrefix is prepended to every demo route.
	PathPrefix string `yaml:"pathPrefix" env:"SERVICE_PATH_PREFIX" default:"/nodejs"`

	// Greeting is the body returned by GET /hello.
	Greeting string `yaml:"greeting" default:"Hello from Node.js! [javascript]"`

	// UsersURL is the downstream endpoint receiving relayed users.
	UsersURL string `yaml:"usersURL" env:"SERVICE_USERS_URL" default:"http://wildfy-swarm:3003/wildfly-swarm/users" validate:"required,url"`

	// ClientSpansURL is the target of the GET /clientSpans fan-out.
	ClientSpansURL string `yaml:"clientSpansURL" env:"SERVICE_CLIENT_SPANS_URL" default:"https://jsonplaceholder.typicode.com/posts/1" validate:"required,url"`

	// ClientSpansPayload is sent as the body of every fan-out request.
	ClientSpansPayload string `yaml:"clientSpansPayload" default:"some data"`

	// MaxClientSpans bounds the n query parameter of GET /clientSpans.
	MaxClientSpans int `yaml:"maxClientSpans" env:"SERVICE_MAX_CLIENT_SPANS" default:"1000" validate:"gte=0"`

	// ClientTimeout bounds every outbound call, including detached ones.
	ClientTimeout time.Duration `yaml:"clientTimeout" env:"SERVICE_CLIENT_TIMEOUT" default:"10s" validate:"gte=0"`

	// DialTimeout bounds TCP connection setup of outbound calls.
	DialTimeout time.Duration `yaml:"dialTimeout" env:"SERVICE_DIAL_TIMEOUT" default:"5s" validate:"gte=0"`

	// TLSHandshakeTimeout bounds the TLS handshake of outbound calls.
	TLSHandshakeTimeout time.Duration `yaml:"tlsHandshakeTimeout" env:"SERVICE_TLS_HANDSHAKE_TIMEOUT" default:"10s" validate:"gte=0"`

	// ResponseHeaderTimeout bounds the wait for downstream response headers.
	ResponseHeaderTimeout time.Duration `yaml:"responseHeaderTimeout" env:"SERVICE_RESPONSE_HEADER_TIMEOUT" default:"5s" validate:"gte=0"`

	// IdleConnTimeout is how long idle downstream connections are kept.
	IdleConnTimeout time.Duration `yaml:"idleConnTimeout" env:"SERVICE_IDLE_CONN_TIMEOUT" default:"90s" validate:"gte=0"`

	// MaxConnsPerHost caps connections per downstream host. Zero means no limit.
	MaxConnsPerHost int `yaml:"maxConnsPerHost" env:"SERVICE_MAX_CONNS_PER_HOST" validate:"gte=0"`

	// ShutdownTimeout bounds the graceful shutdown sequence.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SERVICE_SHUTDOWN_TIMEOUT" default:"15s" validate:"gte=0"`
}

// EventsConfig configures publication of user events to NATS JetStream.
type EventsConfig struct {
	// NATSURL is the NATS server URL. Event publication is disabled when empty.
	NATSURL string `yaml:"natsURL" env:"EVENTS_NATS_URL"`

	// Subject is the subject user-created events are published on.
	Subject string `yaml:"subject" env:"EVENTS_SUBJECT" default:"users.created"`

	// Stream is created (or updated) to capture Subject when set.
	Stream string `yaml:"stream" env:"EVENTS_STREAM" default:"USERS"`
}

// IsEnabled returns true if event publication is configured.
func (c EventsConfig) IsEnabled() bool {
	return c.NATSURL != ""
}

// TelemetryConfig configures the OpenTelemetry system.
// Environment variable names follow the OTel specification:
// https://opentelemetry.io/docs/specs/otel/configuration/sdk-environment-variables/
type TelemetryConfig struct {
	// Enabled controls whether telemetry is exported. When disabled the
	// service runs with no-op providers.
	Enabled *bool `yaml:"enabled" default:"true" env:"TRACING_ENABLED"`

	// ServiceName is the name of the service for telemetry identification.
	// Maps to OTEL_SERVICE_NAME.
	ServiceName string `yaml:"serviceName" env:"OTEL_SERVICE_NAME" default:"Node.js" validate:"required_if=Enabled true"`

	// Version is the service version (e.g., git commit or semantic version).
	// Used in service.version resource attribute.
	Version string `yaml:"version" env:"OTEL_SERVICE_VERSION"`

	// Environment is the deployment environment (e.g., production, development).
	// Used in deployment.environment resource attribute.
	Environment string `yaml:"environment" env:"OTEL_DEPLOYMENT_ENVIRONMENT" default:"development"`

	// ResourceAttributes contains additional resource attributes as key=value pairs.
	// Maps to OTEL_RESOURCE_ATTRIBUTES (comma-separated key=value pairs).
	ResourceAttributes map[string]string `yaml:"resourceAttributes,omitempty" env:"OTEL_RESOURCE_ATTRIBUTES"`

	// Zipkin locates the Zipkin-compatible collector used by the zipkin exporter.
	Zipkin ZipkinConfig `yaml:"zipkin"`

	// OTLP contains shared OTLP exporter settings used by all signals (traces, logs, metrics).
	// Signal-specific settings can override these.
	OTLP *OTLPConfig `yaml:"otlp,omitempty"`

	// Traces configures the tracing subsystem.
	Traces *TracesConfig `yaml:"traces,omitempty"`

	// Logs configures the OTel log bridge.
	Logs *LogsConfig `yaml:"logs,omitempty"`

	// Metrics configures the metrics subsystem.
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`

	// Propagation configures context propagation (B3, W3C TraceContext, Baggage).
	// Maps to OTEL_PROPAGATORS.
	Propagation *PropConfig `yaml:"propagation,omitempty"`
}

// ZipkinConfig locates the Zipkin span collector.
type ZipkinConfig struct {
	// Endpoint is a full collector URL. When set it wins over Host, Port and Path.
	// Maps to OTEL_EXPORTER_ZIPKIN_ENDPOINT.
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_ZIPKIN_ENDPOINT" validate:"omitempty,url"`

	// Host is the collector host name.
	Host string `yaml:"host" env:"TRACING_HOST" default:"tracing-server"`

	// Port is the collector port, read from TRACING_PORT.
	Port int `yaml:"port" env:"TRACING_PORT" default:"9411" validate:"gte=0,lte=65535"`

	// Path is the span ingestion path. The exporter speaks Zipkin v2 JSON.
	Path string `yaml:"path" env:"TRACING_PATH" default:"/api/v2/spans"`

	// Headers are added to every span batch posted to the collector.
	// OTLP headers are never sent to the Zipkin collector.
	Headers map[string]string `yaml:"headers,omitempty" env:"TRACING_HEADERS"`

	// Timeout bounds one batch post.
	Timeout time.Duration `yaml:"timeout" env:"TRACING_TIMEOUT" default:"10s" validate:"gte=0"`
}

// URL returns the effective collector URL.
func (c ZipkinConfig) URL() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}

	host := c.Host
	if host == "" {
		host = "tracing-server"
	}
	port := c.Port
	if port == 0 {
		port = 9411
	}
	path := c.Path
	if path == "" {
		path = "/api/v2/spans"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + path
}

// OTLPConfig contains shared OTLP exporter settings.
// These settings apply to all signals unless overridden by signal-specific config.
type OTLPConfig struct {
	// Endpoint is the OTLP collector endpoint.
	// Maps to OTEL_EXPORTER_OTLP_ENDPOINT.
	//
	// Format depends on protocol:
	//   - gRPC: "host:port" (e.g., "localhost:4317"). Do NOT include scheme.
	//   - HTTP: Full URL with scheme (e.g., "http://localhost:4318/v1/traces").
	Endpoint string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	// Insecure disables TLS for the OTLP connection.
	// Maps to OTEL_EXPORTER_OTLP_INSECURE.
	Insecure *bool `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`

	// Headers adds custom headers to OTLP requests.
	// Maps to OTEL_EXPORTER_OTLP_HEADERS (comma-separated key=value pairs).
	// Avoid logging this value, as it may contain sensitive credentials.
	Headers map[string]string `yaml:"headers,omitempty" env:"OTEL_EXPORTER_OTLP_HEADERS"`

	// Protocol determines the OTLP transport protocol.
	// Maps to OTEL_EXPORTER_OTLP_PROTOCOL.
	// Options: "grpc", "http/protobuf", "http".
	Protocol string `yaml:"protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL" default:"grpc" validate:"oneof=grpc http/protobuf http"`

	// Timeout is the timeout for exporter operations.
	// Maps to OTEL_EXPORTER_OTLP_TIMEOUT.
	Timeout time.Duration `yaml:"timeout" env:"OTEL_EXPORTER_OTLP_TIMEOUT" default:"10s" validate:"gte=0"`

	// Compression sets the compression algorithm for OTLP.
	// Maps to OTEL_EXPORTER_OTLP_COMPRESSION.
	// Options: "gzip", "none".
	Compression string `yaml:"compression,omitempty" env:"OTEL_EXPORTER_OTLP_COMPRESSION" validate:"omitempty,oneof=gzip none"`
}

// IsInsecure returns true if insecure connection is enabled.
func (c *OTLPConfig) IsInsecure() bool {
	return c == nil || c.Insecure == nil || *c.Insecure
}

// TracesConfig configures the tracing subsystem.
type TracesConfig struct {
	// Enabled controls whether tracing is active. Defaults to true if parent is enabled.
	Enabled *bool `yaml:"enabled" default:"true"`

	// Exporter determines the trace exporter type.
	// Maps to OTEL_TRACES_EXPORTER.
	// Options: "zipkin", "otlp", "console", "stdout", "none".
	Exporter string `yaml:"exporter" env:"OTEL_TRACES_EXPORTER" default:"zipkin" validate:"oneof=zipkin otlp console stdout none"`

	// Endpoint overrides OTLP.Endpoint for traces.
	// Maps to OTEL_EXPORTER_OTLP_TRACES_ENDPOINT.
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`

	// Sampling configures the trace sampling strategy.
	Sampling *SamplingConfig `yaml:"sampling,omitempty"`
}

// IsEnabled returns true if tracing is enabled.
func (c *TracesConfig) IsEnabled() bool {
	return c == nil || c.Enabled == nil || *c.Enabled
}

// LogsConfig configures the OTel log bridge.
type LogsConfig struct {
	// Enabled controls whether OTel log export is active.
	// Defaults to false (opt-in for logs).
	Enabled *bool `yaml:"enabled" default:"false"`

	// Exporter determines the log exporter type.
	// Maps to OTEL_LOGS_EXPORTER.
	// Options: "otlp", "console", "stdout", "none".
	Exporter string `yaml:"exporter" env:"OTEL_LOGS_EXPORTER" default:"otlp" validate:"oneof=otlp console stdout none"`

	// Endpoint overrides OTLP.Endpoint for logs.
	// Maps to OTEL_EXPORTER_OTLP_LOGS_ENDPOINT.
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"`
}

// IsEnabled returns true if OTel log export is enabled.
func (c *LogsConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// MetricsConfig configures the metrics subsystem.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Defaults to false (opt-in for metrics).
	Enabled *bool `yaml:"enabled" default:"false"`

	// Exporter determines the metrics exporter type.
	// Maps to OTEL_METRICS_EXPORTER.
	// Options: "otlp", "prometheus", "console", "stdout", "none".
	// The prometheus exporter is pulled through GET /metrics.
	Exporter string `yaml:"exporter" env:"OTEL_METRICS_EXPORTER" default:"otlp" validate:"oneof=otlp prometheus console stdout none"`

	// Endpoint overrides OTLP.Endpoint for metrics.
	// Maps to OTEL_EXPORTER_OTLP_METRICS_ENDPOINT.
	Endpoint string `yaml:"endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"`

	// Interval is the export interval for periodic metric reader.
	// Maps to OTEL_METRIC_EXPORT_INTERVAL (milliseconds if numeric).
	// Defaults to 60s.
	Interval time.Duration `yaml:"interval,omitempty" env:"OTEL_METRIC_EXPORT_INTERVAL" default:"60s" validate:"omitempty,gt=0"`

	// Runtime enables Go runtime metrics (GC, goroutines, memory).
	Runtime *bool `yaml:"runtime" default:"true"`
}

// IsEnabled returns true if metrics collection is enabled.
func (c *MetricsConfig) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// RuntimeEnabled returns true if Go runtime metrics should be collected.
func (c *MetricsConfig) RuntimeEnabled() bool {
	return c.IsEnabled() && (c.Runtime == nil || *c.Runtime)
}

// SamplingConfig configures the trace sampling strategy.
// Maps to OTEL_TRACES_SAMPLER and OTEL_TRACES_SAMPLER_ARG.
type SamplingConfig struct {
	// Sampler determines which sampler to use.
	// Maps to OTEL_TRACES_SAMPLER.
	// Options: "always_on", "always_off", "traceidratio",
	// "parentbased_always_on", "parentbased_always_off", "parentbased_traceidratio".
	// Defaults to "parentbased_always_on" (OTel default).
	Sampler string `yaml:"sampler" env:"OTEL_TRACES_SAMPLER" default:"parentbased_always_on" validate:"oneof=always_on always_off traceidratio parentbased_always_on parentbased_always_off parentbased_traceidratio"`

	// SamplerArg is the argument for ratio-based samplers.
	// Maps to OTEL_TRACES_SAMPLER_ARG.
	// For traceidratio and parentbased_traceidratio: sampling probability 0.0 to 1.0.
	// Defaults to 1.0 (100%).
	SamplerArg float64 `yaml:"samplerArg" env:"OTEL_TRACES_SAMPLER_ARG" default:"1.0" validate:"gte=0,lte=1"`
}

// PropConfig configures context propagation.
// Maps to OTEL_PROPAGATORS.
type PropConfig struct {
	// Propagators specifies which propagators to use.
	// Maps to OTEL_PROPAGATORS (comma-separated list).
	// Known values: "b3", "b3multi", "tracecontext", "baggage", "none".
	// Defaults to "b3multi,tracecontext,baggage" so Zipkin-instrumented peers
	// and OTel peers both continue our traces.
	Propagators string `yaml:"propagators" env:"OTEL_PROPAGATORS" default:"b3multi,tracecontext,baggage"`
}

// defaultPropagators is used when no propagation config is present.
const defaultPropagators = "b3multi,tracecontext,baggage"

// HasTraceContext returns true if tracecontext propagator is enabled.
func (c *PropConfig) HasTraceContext() bool {
	return containsPropagator(c.effective(), "tracecontext")
}

// HasBaggage returns true if baggage propagator is enabled.
func (c *PropConfig) HasBaggage() bool {
	return containsPropagator(c.effective(), "baggage")
}

// HasB3 returns true if the single-header b3 propagator is enabled.
func (c *PropConfig) HasB3() bool {
	return containsPropagator(c.effective(), "b3")
}

// HasB3Multi returns true if the multi-header b3 propagator is enabled.
func (c *PropConfig) HasB3Multi() bool {
	return containsPropagator(c.effective(), "b3multi")
}

func (c *PropConfig) effective() string {
	if c == nil || c.Propagators == "" {
		return defaultPropagators
	}

	return c.Propagators
}

// containsPropagator checks if a propagator is in the comma-separated list.
func containsPropagator(propagators, name string) bool {
	return slices.Contains(splitPropagators(propagators), name)
}

// splitPropagators splits a comma-separated propagator list.
func splitPropagators(propagators string) []string {
	if propagators == "" {
		return nil
	}

	var result []string
	for p := range strings.SplitSeq(propagators, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}

	return result
}

// IsEnabled returns true if telemetry is enabled.
// A nil Enabled counts as enabled.
func (c *TelemetryConfig) IsEnabled() bool {
	return c != nil && (c.Enabled == nil || *c.Enabled)
}

// GetSamplingConfig returns the effective sampling config, or nil for the default.
func (c *TelemetryConfig) GetSamplingConfig() *SamplingConfig {
	if c == nil || c.Traces == nil {
		return nil
	}

	return c.Traces.Sampling
}

// GetTracesExporter returns the effective traces exporter type.
func (c *TelemetryConfig) GetTracesExporter() string {
	if c != nil && c.Traces != nil && c.Traces.Exporter != "" {
		return c.Traces.Exporter
	}

	return "zipkin"
}

// GetOTLPEndpoint returns the effective OTLP endpoint for traces.
// Priority: Traces.Endpoint > OTLP.Endpoint.
func (c *TelemetryConfig) GetOTLPEndpoint() string {
	if c == nil {
		return "localhost:4317"
	}
	if c.Traces != nil && c.Traces.Endpoint != "" {
		return c.Traces.Endpoint
	}
	if c.OTLP != nil && c.OTLP.Endpoint != "" {
		return c.OTLP.Endpoint
	}

	return "localhost:4317"
}

// GetOTLPConfig returns the effective OTLP config.
func (c *TelemetryConfig) GetOTLPConfig() *OTLPConfig {
	if c == nil || c.OTLP == nil {
		return &OTLPConfig{}
	}

	return c.OTLP
}

// boolPtr returns a pointer to the given boolean value.
// It is useful for initializing config fields.
func boolPtr(v bool) *bool { return &v }
