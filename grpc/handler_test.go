package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/arloliu/tracedsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startHealthServer(t *testing.T, handler grpc.ServerOption) *bufconn.Listener {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer(handler)
	healthpb.RegisterHealthServer(s, health.NewServer())

	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	return lis
}

func dial(t *testing.T, lis *bufconn.Listener, handler grpc.DialOption) *grpc.ClientConn {
	t.Helper()

	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		handler,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestServerHandler(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tel := tracedsvc.NewTelemetryFromProviders(tp, nil, nil)

	lis := startHealthServer(t, grpc.StatsHandler(ServerHandler(tel)))
	conn := dial(t, lis, grpc.WithStatsHandler(otelgrpc.NewClientHandler(buildProviderOptions(tp, nil, tel.Propagator)...)))

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	require.Eventually(t, func() bool { return len(exporter.GetSpans()) == 2 }, time.Second, 10*time.Millisecond)

	var server, client sdktrace.ReadOnlySpan
	for _, s := range exporter.GetSpans().Snapshots() {
		switch s.SpanKind() {
		case trace.SpanKindServer:
			server = s
		case trace.SpanKindClient:
			client = s
		}
	}
	require.NotNil(t, server)
	require.NotNil(t, client)
	assert.Equal(t, "grpc.health.v1.Health/Check", server.Name())
	assert.Equal(t, client.SpanContext().TraceID(), server.SpanContext().TraceID())
	assert.Equal(t, client.SpanContext().SpanID(), server.Parent().SpanID())
}

func TestServerHandlerWithProviders(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	mp := noop.NewMeterProvider()
	prop := tracedsvc.NewPropagator(nil)

	lis := startHealthServer(t, grpc.StatsHandler(ServerHandlerWithProviders(tp, mp, prop)))
	conn := dial(t, lis, grpc.WithStatsHandler(otelgrpc.NewClientHandler(buildProviderOptions(tp, mp, prop)...)))

	_, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(exporter.GetSpans()) == 2 }, time.Second, 10*time.Millisecond)
}

func TestHandlerWithNilProviders(t *testing.T) {
	lis := startHealthServer(t, grpc.StatsHandler(ServerHandlerWithProviders(nil, nil, nil)))
	conn := dial(t, lis, grpc.WithStatsHandler(otelgrpc.NewClientHandler()))

	// Should not panic with nil providers
	_, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	assert.NoError(t, err)
}
