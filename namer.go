package tracedsvc

// SpanNamer defines how operation names are transformed into span names.
type SpanNamer interface {
	Name(operation string) string
}

// DefaultNamer returns operation names unchanged.
// This complies with OpenTelemetry semantic conventions which recommend
// using the raw operation name without service prefixes.
type DefaultNamer struct{}

// Name returns the operation name as is.
func (DefaultNamer) Name(operation string) string {
	return operation
}

// NameHTTP returns a compliant span name for an HTTP request: "METHOD /route".
// Example: "GET /nodejs/hello"
func NameHTTP(method, route string) string {
	return method + " " + route
}

// NameMessaging returns a compliant span name for a messaging operation: "verb destination".
// Example: "publish users.created"
func NameMessaging(verb, destination string) string {
	return verb + " " + destination
}
