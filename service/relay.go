package service

import (
	"context"
	"sync"

	"github.com/arloliu/tracedsvc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Relay runs outbound calls detached from the request that triggered them.
//
// A detached call keeps the request's trace context but not its cancellation:
// the handler may respond and return while the call is still in flight, and
// the call's client span still ends when the call itself completes.
//
// Once Close is called, Go refuses new calls so Wait has a fixed set of calls
// to drain.
type Relay struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	logger *zap.Logger

	inflight metric.Int64UpDownCounter
	calls    metric.Int64Counter
}

// NewRelay creates a Relay recording its metrics with tel's MeterProvider.
func NewRelay(tel *tracedsvc.Telemetry, logger *zap.Logger) *Relay {
	meter := tel.MeterProvider.Meter(instrumentationName)

	// Instrument creation only fails on invalid names; the no-op fallbacks
	// returned alongside the error are still usable.
	inflight, _ := meter.Int64UpDownCounter("relay.inflight",
		metric.WithDescription("Detached outbound calls in flight"),
	)
	calls, _ := meter.Int64Counter("relay.calls",
		metric.WithDescription("Detached outbound calls by task and outcome"),
	)

	return &Relay{
		logger:   logger,
		inflight: inflight,
		calls:    calls,
	}
}

// Go runs task in its own goroutine with a context that carries ctx's values,
// including the active span, but is never canceled by ctx.
// A task error is logged with the task's trace fields; it never reaches the
// caller. After Close, task is dropped and counted as rejected.
func (r *Relay) Go(ctx context.Context, name string, task func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	taskAttr := metric.WithAttributes(attribute.String("task", name))

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.logger.Warn("detached call rejected, relay closed",
			append(tracedsvc.LogFields(ctx), zap.String("task", name))...,
		)
		r.record(ctx, name, "rejected")

		return
	}

	tracedsvc.AddEvent(ctx, "detached call", attribute.String("task", name))
	r.inflight.Add(ctx, 1, taskAttr)
	r.wg.Go(func() {
		defer r.inflight.Add(ctx, -1, taskAttr)

		outcome := "success"
		if err := task(ctx); err != nil {
			outcome = "failure"
			r.logger.Warn("detached call failed",
				append(tracedsvc.LogFields(ctx), zap.String("task", name), zap.Error(err))...,
			)
		}
		r.record(ctx, name, outcome)
	})
}

func (r *Relay) record(ctx context.Context, name, outcome string) {
	r.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task", name),
		attribute.String("outcome", outcome),
	))
}

// Close stops the relay from accepting new calls. Calls already started keep
// running; use Wait to drain them.
func (r *Relay) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Wait blocks until every started task has returned or ctx is done.
func (r *Relay) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
