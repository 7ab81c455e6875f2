package main

import (
	"context"
	"fmt"

	"github.com/arloliu/tracedsvc"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// reportTelemetryErrors routes OTel SDK errors to logger. Export failures end
// up here and the failed batch is dropped.
func reportTelemetryErrors(logger *zap.Logger) {
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		logger.Warn("telemetry error", zap.Error(err))
	}))
}

// initTelemetry builds the providers for cfg with OTel errors already routed
// to bootstrap, so problems raised while building them, such as an unknown
// OTEL_PROPAGATORS entry, are not lost. Callers switch to their final logger
// with reportTelemetryErrors once it exists.
func initTelemetry(ctx context.Context, cfg *tracedsvc.TelemetryConfig, bootstrap *zap.Logger) (*tracedsvc.Telemetry, error) {
	reportTelemetryErrors(bootstrap)

	tel, err := tracedsvc.NewTelemetry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	return tel, nil
}
