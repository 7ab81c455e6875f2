package tracedsvc

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is the minimum enabled level: "debug", "info", "warn" or "error".
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Development switches to a human-readable console encoder with stack traces.
	Development bool `yaml:"development" env:"LOG_DEVELOPMENT"`

	// OutputPaths lists zap sinks (file paths, "stdout" or "stderr").
	OutputPaths []string `yaml:"outputPaths,omitempty"`
}

// NewLogger builds a zap logger from cfg.
//
// When lp is non-nil, every entry is also handed to the OTel log bridge so it
// is exported alongside the spans of the request that produced it.
func NewLogger(cfg LogConfig, lp otellog.LoggerProvider) (*zap.Logger, error) {
	var level zapcore.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		Encoding:          "json",
		EncoderConfig:     zap.NewProductionEncoderConfig(),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !cfg.Development,
	}
	if cfg.Development {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	if lp == nil {
		return logger, nil
	}

	var bridge zapcore.Core = otelzap.NewCore("github.com/arloliu/tracedsvc", otelzap.WithLoggerProvider(lp))
	if leveled, err := zapcore.NewIncreaseLevelCore(bridge, level); err == nil {
		bridge = leveled
	}

	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, bridge)
	})), nil
}

// LogFields returns the trace correlation fields of ctx.
// Baggage members are included under the "baggage" key.
func LogFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := TraceID(ctx); id != "" {
		fields = append(fields, zap.String("trace_id", id))
	}
	if id := SpanID(ctx); id != "" {
		fields = append(fields, zap.String("span_id", id))
	}
	if bag := AllBaggage(ctx); len(bag) > 0 {
		fields = append(fields, zap.Any("baggage", bag))
	}

	return fields
}
