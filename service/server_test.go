package service

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/arloliu/tracedsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func listen(t *testing.T) net.Listener {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	return lis
}

func TestServe(t *testing.T) {
	users := newDownstream(t, http.StatusOK)
	target := newDownstream(t, http.StatusOK)

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tel := tracedsvc.NewTelemetryFromProviders(tp, nil, nil)

	svc := New(testConfig(users.URL, target.URL), tel, zap.NewNop())

	httpLis := listen(t)
	grpcLis := listen(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx, httpLis, grpcLis) }()

	resp, err := http.Get("http://" + httpLis.Addr().String() + "/nodejs/clientSpans?n=2")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2 requests to "+target.URL, string(body))

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	check, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check.GetStatus())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	// Shutdown waits for the detached calls, so their spans are all recorded.
	assert.Len(t, target.Requests(), 2)
	spans := exporter.GetSpans()
	var root sdktrace.ReadOnlySpan
	for _, s := range spans.Snapshots() {
		if s.Name() == "GET /nodejs/clientSpans" {
			root = s
		}
	}
	require.NotNil(t, root)

	var inTrace int
	for _, s := range spans {
		if s.SpanContext.TraceID() == root.SpanContext().TraceID() {
			inTrace++
		}
	}
	assert.Equal(t, 3, inTrace)
}

func TestServe_WithoutGRPC(t *testing.T) {
	svc := New(testConfig("http://127.0.0.1:1/users", "http://127.0.0.1:1/posts/1"),
		tracedsvc.NewTelemetryFromProviders(nil, nil, nil), nil)

	httpLis := listen(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx, httpLis, nil) }()

	resp, err := http.Get("http://" + httpLis.Addr().String() + "/nodejs/hello")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_ListenError(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1/users", "http://127.0.0.1:1/posts/1")
	cfg.Address = "256.0.0.1:bad"

	svc := New(cfg, tracedsvc.NewTelemetryFromProviders(nil, nil, nil), nil)
	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen http")
}
