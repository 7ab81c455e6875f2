package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arloliu/tracedsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newMeteredRelay(t *testing.T) (*Relay, *sdkmetric.ManualReader, *observer.ObservedLogs) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	core, logs := observer.New(zapcore.InfoLevel)

	return NewRelay(tracedsvc.NewTelemetryFromProviders(nil, mp, nil), zap.New(core)), reader, logs
}

func TestRelay_OutlivesCanceledContext(t *testing.T) {
	relay, _, _ := newMeteredRelay(t)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	var taskErr error

	relay.Go(ctx, "slow", func(ctx context.Context) error {
		<-release
		taskErr = ctx.Err()

		return nil
	})
	cancel()
	close(release)

	require.NoError(t, relay.Wait(context.Background()))
	assert.NoError(t, taskErr, "detached task context is never canceled")
}

func TestRelay_KeepsSpan(t *testing.T) {
	relay, _, _ := newMeteredRelay(t)
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	var traceID string
	relay.Go(ctx, "child", func(ctx context.Context) error {
		traceID = tracedsvc.TraceID(ctx)
		return nil
	})
	span.End()

	require.NoError(t, relay.Wait(context.Background()))
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
}

func TestRelay_WaitTimeout(t *testing.T) {
	relay, _, _ := newMeteredRelay(t)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	relay.Go(context.Background(), "stuck", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, relay.Wait(ctx), context.DeadlineExceeded)
}

func TestRelay_Metrics(t *testing.T) {
	relay, reader, logs := newMeteredRelay(t)

	relay.Go(context.Background(), "createUser", func(context.Context) error { return nil })
	relay.Go(context.Background(), "createUser", func(context.Context) error { return errors.New("boom") })
	require.NoError(t, relay.Wait(context.Background()))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	outcomes := map[string]int64{}
	var inflight int64 = -1
	for _, m := range rm.ScopeMetrics[0].Metrics {
		switch m.Name {
		case "relay.calls":
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				outcomes[outcome.AsString()] += dp.Value
			}
		case "relay.inflight":
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			require.Len(t, sum.DataPoints, 1)
			inflight = sum.DataPoints[0].Value
		}
	}

	assert.Equal(t, map[string]int64{"success": 1, "failure": 1}, outcomes)
	assert.Zero(t, inflight)

	failed := logs.FilterMessage("detached call failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].ContextMap()["error"])
}

func TestRelay_CloseRejectsNewCalls(t *testing.T) {
	relay, reader, logs := newMeteredRelay(t)

	relay.Go(context.Background(), "createUser", func(context.Context) error { return nil })
	relay.Close()

	ran := false
	relay.Go(context.Background(), "createUser", func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, relay.Wait(context.Background()))
	assert.False(t, ran, "calls started after Close never run")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	outcomes := map[string]int64{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name != "relay.calls" {
			continue
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		for _, dp := range sum.DataPoints {
			outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
			outcomes[outcome.AsString()] += dp.Value
		}
	}
	assert.Equal(t, map[string]int64{"success": 1, "rejected": 1}, outcomes)
	assert.Equal(t, 1, logs.FilterMessage("detached call rejected, relay closed").Len())
}

func TestRelay_CloseWhileWaiting(t *testing.T) {
	relay, _, _ := newMeteredRelay(t)

	release := make(chan struct{})
	relay.Go(context.Background(), "slow", func(context.Context) error {
		<-release
		return nil
	})

	waited := make(chan error, 1)
	go func() { waited <- relay.Wait(context.Background()) }()

	relay.Close()
	for range 10 {
		relay.Go(context.Background(), "late", func(context.Context) error { return nil })
	}
	close(release)

	select {
	case err := <-waited:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after the started call finished")
	}
}

func TestRelay_EventOnRequestSpan(t *testing.T) {
	relay, _, _ := newMeteredRelay(t)
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	relay.Go(ctx, "clientSpans", func(context.Context) error { return nil })
	span.End()
	require.NoError(t, relay.Wait(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "detached call", spans[0].Events[0].Name)
	assert.Contains(t, spans[0].Events[0].Attributes, attribute.String("task", "clientSpans"))
}
