package main

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/tracedsvc"
	tracednats "github.com/arloliu/tracedsvc/nats"
	"github.com/arloliu/tracedsvc/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const telemetryFlushTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the traced HTTP service",
		Example: `  tracedsvc serve
  tracedsvc serve --config config.yaml
  TRACING_PORT=9411 SERVICE_ADDRESS=:3001 tracedsvc serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServiceConfig(configPath)
			if err != nil {
				return err
			}

			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML or JSON config file (defaults and environment only when empty)")

	return cmd
}

func loadServiceConfig(path string) (*tracedsvc.Config, error) {
	if path == "" {
		return tracedsvc.DefaultConfig()
	}

	return tracedsvc.LoadConfig(path)
}

// serve runs the service until ctx is done, then flushes telemetry.
func serve(ctx context.Context, cfg *tracedsvc.Config) error {
	// The bootstrap logger has no OTel bridge; it only covers telemetry setup.
	bootstrap, err := tracedsvc.NewLogger(cfg.Log, nil)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = bootstrap.Sync() }()

	tel, err := initTelemetry(ctx, &cfg.Telemetry, bootstrap)
	if err != nil {
		return err
	}

	logger, err := tracedsvc.NewLogger(cfg.Log, tel.LoggerProvider)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	reportTelemetryErrors(logger)

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := tel.Shutdown(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	var opts []service.Option
	if cfg.Events.IsEnabled() {
		events, err := tracednats.Connect(ctx, cfg.Events, tel)
		if err != nil {
			return fmt.Errorf("init events: %w", err)
		}
		defer func() {
			if err := events.Close(); err != nil {
				logger.Warn("close events", zap.Error(err))
			}
		}()
		opts = append(opts, service.WithEventPublisher(events))
		logger.Info("publishing user events",
			zap.String("nats", cfg.Events.NATSURL),
			zap.String("subject", cfg.Events.Subject),
		)
	}

	logger.Info("starting service",
		zap.String("service", cfg.Telemetry.ServiceName),
		zap.String("version", version),
		zap.String("traces_exporter", cfg.Telemetry.GetTracesExporter()),
		zap.String("zipkin", cfg.Telemetry.Zipkin.URL()),
	)

	if err := service.New(cfg.Service, tel, logger, opts...).Run(ctx); err != nil {
		return fmt.Errorf("run service: %w", err)
	}
	logger.Info("service stopped")

	return nil
}
