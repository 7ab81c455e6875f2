// Package grpc provides OpenTelemetry instrumentation for the gRPC health
// server. Server spans continue the trace carried by the caller's metadata,
// using the propagator of the Telemetry they are built from.
//
//	server := grpc.NewServer(
//	    grpc.StatsHandler(tracedgrpc.ServerHandler(tel)),
//	)
package grpc
