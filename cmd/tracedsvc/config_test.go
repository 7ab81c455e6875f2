package main

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProbeConfig_Defaults(t *testing.T) {
	cfg := newProbeConfig()

	// Defaults come from fuda struct tags
	assert.Equal(t, "http://localhost:3001/nodejs", cfg.BaseURL)
	assert.Equal(t, "tracedsvc-probe", cfg.ServiceName)
	assert.False(t, cfg.NoTrace)
	assert.Equal(t, "clientSpans", cfg.Scenario)
	assert.Equal(t, 50, cfg.ClientSpans)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.Count)
	assert.False(t, cfg.Continuous)
	assert.Equal(t, time.Minute, cfg.Duration)
	assert.Equal(t, 1.0, cfg.Rate)
	assert.Equal(t, 20, cfg.Jitter)
}

func TestProbeConfig_ApplyEnvOverrides(t *testing.T) {
	cfg := newProbeConfig()

	t.Setenv("PROBE_BASE_URL", "http://svc:3001/nodejs")
	t.Setenv("PROBE_SERVICE_NAME", "load-test")
	cfg.applyEnvOverrides()

	assert.Equal(t, "http://svc:3001/nodejs", cfg.BaseURL)
	assert.Equal(t, "load-test", cfg.ServiceName)
}

func TestProbeConfig_BindFlags(t *testing.T) {
	cfg := newProbeConfig()
	fs := pflag.NewFlagSet("probe", pflag.ContinueOnError)
	cfg.bindFlags(fs)

	err := fs.Parse([]string{
		"--base-url", "http://127.0.0.1:8080/api",
		"--scenario", "all",
		"-n", "3",
		"--continuous",
		"--duration", "5m",
		"--rate", "10",
		"--jitter", "0",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080/api", cfg.BaseURL)
	assert.Equal(t, "all", cfg.Scenario)
	assert.Equal(t, 3, cfg.ClientSpans)
	assert.True(t, cfg.Continuous)
	assert.Equal(t, 5*time.Minute, cfg.Duration)
	assert.Equal(t, 10.0, cfg.Rate)
	assert.Zero(t, cfg.Jitter)
	assert.Equal(t, 10, cfg.Count, "unset flags keep their defaults")
}
