package main

import (
	"context"
	"fmt"

	"github.com/arloliu/tracedsvc"
	"github.com/arloliu/tracedsvc/internal/probe"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newProbeCmd() *cobra.Command {
	cfg := newProbeConfig()

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Replay the service endpoints against a running instance",
		Long: `Replay the service endpoints against a running instance.

Every round is a root span exported with the same telemetry settings as the
service, so the service's spans appear as its descendants. Quick mode runs
--count rounds back to back; --continuous runs at --rate for --duration.

Environment variables override flags:
  PROBE_BASE_URL        Service URL including the route prefix
  PROBE_SERVICE_NAME    Service name of the probe's own spans`,
		Example: `  tracedsvc probe --scenario clientSpans -n 50 --count 20
  tracedsvc probe --scenario all --continuous --duration 5m --rate 10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.applyEnvOverrides()

			return runProbe(cmd.Context(), cmd, cfg)
		},
	}
	cfg.bindFlags(cmd.Flags())

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available scenarios",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Available scenarios:")
			for _, s := range probe.Scenarios {
				_, _ = fmt.Fprintf(out, "  %-12s %s\n", s.Name, s.Description)
			}
		},
	})

	return cmd
}

func runProbe(ctx context.Context, cmd *cobra.Command, cfg *probeConfig) error {
	telCfg, err := tracedsvc.DefaultConfig()
	if err != nil {
		return err
	}
	telCfg.Telemetry.ServiceName = cfg.ServiceName
	if cfg.NoTrace {
		disabled := false
		telCfg.Telemetry.Enabled = &disabled
	}

	logger, err := tracedsvc.NewLogger(telCfg.Log, nil)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	tel, err := initTelemetry(ctx, &telCfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		_ = tel.Shutdown(flushCtx)
	}()

	p, err := probe.New(probe.Config{
		BaseURL:     cfg.BaseURL,
		Scenario:    probe.Scenario(cfg.Scenario),
		ClientSpans: cfg.ClientSpans,
		Timeout:     cfg.Timeout,
		Count:       cfg.Count,
		Duration:    cfg.Duration,
		Rate:        cfg.Rate,
		JitterPct:   cfg.Jitter,
	}, tel, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Continuous {
		_, _ = fmt.Fprintf(out, "Running %s against %s for %v at %.1f rounds/sec\n", cfg.Scenario, cfg.BaseURL, cfg.Duration, cfg.Rate)
		rounds, err := p.RunContinuous(ctx)
		_, _ = fmt.Fprintf(out, "Completed %d rounds\n", rounds)

		return err
	}

	_, _ = fmt.Fprintf(out, "Sending %d rounds of %s to %s\n", cfg.Count, cfg.Scenario, cfg.BaseURL)
	rounds, err := p.RunQuick(ctx)
	_, _ = fmt.Fprintf(out, "Completed %d/%d rounds\n", rounds, cfg.Count)
	if err != nil {
		return err
	}

	logger.Debug("probe done", zap.Int("rounds", rounds))

	return nil
}
