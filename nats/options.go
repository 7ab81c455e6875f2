package nats

const instrumentationName = "github.com/arloliu/tracedsvc/nats"

// options holds configuration for tracing wrappers.
type options struct {
	tracerName string
	stream     string // Stream name recorded on spans
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		tracerName: instrumentationName,
	}
}

// Option configures tracing behavior.
type Option func(*options)

// WithTracerName sets a custom tracer name.
// Default is the package import path.
func WithTracerName(name string) Option {
	return func(o *options) {
		o.tracerName = name
	}
}

// WithStream sets the stream name recorded as nats.stream on publish spans.
func WithStream(stream string) Option {
	return func(o *options) {
		o.stream = stream
	}
}

// applyOptions applies option functions to the default options.
func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
