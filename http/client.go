package http

import (
	"net"
	"net/http"
	"time"

	"github.com/arloliu/tracedsvc"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// clientConfig holds the outbound client settings. Zero values keep the
// http.DefaultTransport setting.
type clientConfig struct {
	timeout time.Duration

	dialTimeout           time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration

	maxIdleConnsPerHost int
	maxConnsPerHost     int
	idleConnTimeout     time.Duration
}

// ClientOption configures an outbound HTTP client.
type ClientOption func(*clientConfig)

// WithTimeout bounds a whole call, body read included.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithDialTimeout bounds TCP connection setup.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.dialTimeout = d
	}
}

// WithTLSHandshakeTimeout bounds the TLS handshake.
func WithTLSHandshakeTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.tlsHandshakeTimeout = d
	}
}

// WithResponseHeaderTimeout bounds the wait for response headers once the
// request is written.
func WithResponseHeaderTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.responseHeaderTimeout = d
	}
}

// WithMaxIdleConnsPerHost sets how many idle connections are kept per host.
func WithMaxIdleConnsPerHost(n int) ClientOption {
	return func(c *clientConfig) {
		c.maxIdleConnsPerHost = n
	}
}

// WithMaxConnsPerHost caps dialing, active and idle connections per host.
func WithMaxConnsPerHost(n int) ClientOption {
	return func(c *clientConfig) {
		c.maxConnsPerHost = n
	}
}

// WithIdleConnTimeout sets how long an idle connection is kept open.
func WithIdleConnTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.idleConnTimeout = d
	}
}

// NewClient creates an http.Client whose calls are traced with the
// providers and propagator of tel.
//
// Usage:
//
//	client := tracedhttp.NewClient(tel,
//	    tracedhttp.WithTimeout(30 * time.Second),
//	    tracedhttp.WithResponseHeaderTimeout(5 * time.Second),
//	)
func NewClient(tel *tracedsvc.Telemetry, opts ...ClientOption) *http.Client {
	return NewClientWithProviders(tel.TracerProvider, tel.MeterProvider, tel.Propagator, opts...)
}

// NewClientWithProviders creates a traced http.Client from explicit
// providers. A nil provider falls back to a no-op one, and a nil propagator
// to the default composite propagator.
func NewClientWithProviders(
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	prop propagation.TextMapPropagator,
	opts ...ClientOption,
) *http.Client {
	config := &clientConfig{}
	for _, opt := range opts {
		opt(config)
	}

	return &http.Client{
		Transport: TransportWithProviders(buildTransport(config), tp, mp, prop),
		Timeout:   config.timeout,
	}
}

// NewRESTClient returns a resty client sending through a traced http.Client.
// Requests must carry the caller's context (resty's SetContext) for their
// client spans to join the active trace.
//
// Usage:
//
//	rest := tracedhttp.NewRESTClient(tel, tracedhttp.WithTimeout(10*time.Second))
//	resp, err := rest.R().SetContext(ctx).SetBody(payload).Post(url)
func NewRESTClient(tel *tracedsvc.Telemetry, opts ...ClientOption) *resty.Client {
	return resty.NewWithClient(NewClient(tel, opts...)).
		SetAllowGetMethodPayload(true)
}

// buildTransport clones http.DefaultTransport and applies the non-zero settings.
func buildTransport(c *clientConfig) http.RoundTripper {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}
	transport := base.Clone()

	if c.dialTimeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   c.dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}
	if c.tlsHandshakeTimeout > 0 {
		transport.TLSHandshakeTimeout = c.tlsHandshakeTimeout
	}
	if c.responseHeaderTimeout > 0 {
		transport.ResponseHeaderTimeout = c.responseHeaderTimeout
	}
	if c.maxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = c.maxIdleConnsPerHost
	}
	if c.maxConnsPerHost > 0 {
		transport.MaxConnsPerHost = c.maxConnsPerHost
	}
	if c.idleConnTimeout > 0 {
		transport.IdleConnTimeout = c.idleConnTimeout
	}

	return transport
}
