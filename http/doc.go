// Package http provides OpenTelemetry instrumentation for HTTP clients and servers.
//
// # HTTP Server
//
// Use middleware to instrument HTTP handlers:
//
//	handler := tracedhttp.Middleware(tel)(router)
//
//	// Explicit providers, e.g. test recorders
//	handler := tracedhttp.MiddlewareWithProviders(tp, mp, prop)(router)
//
// # HTTP Client
//
// Create an instrumented HTTP client:
//
//	client := tracedhttp.NewClient(tel,
//	    tracedhttp.WithTimeout(30 * time.Second),
//	)
//
//	// Or a resty client on top of it
//	rest := tracedhttp.NewRESTClient(tel)
//	resp, err := rest.R().SetContext(ctx).Get("https://example.com")
package http
