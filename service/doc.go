// Package service implements the traced demo HTTP service.
//
// Every inbound request gets one server span. Outbound calls run detached
// from the request through a [Relay]: the handler replies immediately while
// each call's client span stays a child of the request's server span.
//
// Routes, relative to the configured path prefix:
//
//	GET  /hello              fixed greeting
//	POST /createUser         relays the JSON body to the users service
//	GET  /clientSpans?n=<n>  fires n GET calls at the configured target
//
// /metrics is served at the root when the Prometheus metrics exporter is in use.
package service
