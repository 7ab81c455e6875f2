package main

import (
	"time"

	"github.com/arloliu/fuda"
	"github.com/spf13/pflag"
)

// probeConfig holds the probe command configuration.
// Uses fuda struct tags for defaults and env var binding.
type probeConfig struct {
	// Target
	BaseURL string `yaml:"baseURL" default:"http://localhost:3001/nodejs" env:"PROBE_BASE_URL"`

	// Telemetry of the probe itself
	ServiceName string `yaml:"serviceName" default:"tracedsvc-probe" env:"PROBE_SERVICE_NAME"`
	NoTrace     bool   `yaml:"noTrace" default:"false"`

	// Scenario settings
	Scenario    string        `yaml:"scenario" default:"clientSpans"`
	ClientSpans int           `yaml:"clientSpans" default:"50"`
	Timeout     time.Duration `yaml:"timeout" default:"30s"`

	// Quick mode
	Count int `yaml:"count" default:"10"`

	// Continuous mode
	Continuous bool          `yaml:"continuous" default:"false"`
	Duration   time.Duration `yaml:"duration" default:"1m"`
	Rate       float64       `yaml:"rate" default:"1"`
	Jitter     int           `yaml:"jitter" default:"20"`
}

func newProbeConfig() *probeConfig {
	cfg := &probeConfig{}
	// Apply defaults from struct tags (fuda handles time.Duration parsing)
	_ = fuda.SetDefaults(cfg)

	return cfg
}

func (c *probeConfig) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.BaseURL, "base-url", c.BaseURL, "Service URL including the route prefix")
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name of the probe's own spans")
	fs.BoolVar(&c.NoTrace, "no-trace", c.NoTrace, "Do not export the probe's own spans")
	fs.StringVar(&c.Scenario, "scenario", c.Scenario, "Scenario: hello, createUser, clientSpans or all")
	fs.IntVarP(&c.ClientSpans, "client-spans", "n", c.ClientSpans, "n passed to /clientSpans")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Timeout of every probe request")
	fs.IntVar(&c.Count, "count", c.Count, "Rounds to run in quick mode")
	fs.BoolVar(&c.Continuous, "continuous", c.Continuous, "Run at --rate for --duration instead of --count rounds")
	fs.DurationVar(&c.Duration, "duration", c.Duration, "Total run time in continuous mode")
	fs.Float64Var(&c.Rate, "rate", c.Rate, "Rounds per second in continuous mode")
	fs.IntVar(&c.Jitter, "jitter", c.Jitter, "Timing variation percentage in continuous mode")
}

func (c *probeConfig) applyEnvOverrides() {
	// fuda.LoadEnv reads env vars based on struct tags
	_ = fuda.LoadEnv(c)
}
