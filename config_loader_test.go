package tracedsvc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary config file
	content := []byte(`
service:
  address: "127.0.0.1:8080"
telemetry:
  enabled: true
  serviceName: "test-service-file"
  traces:
    enabled: true
    exporter: "console"
`)
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(tmpFile, content, 0o644)
	require.NoError(t, err)

	// Test loading from file
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, *cfg.Telemetry.Enabled)
	assert.Equal(t, "127.0.0.1:8080", cfg.Service.Address)
	assert.Equal(t, "test-service-file", cfg.Telemetry.ServiceName)
	assert.Equal(t, "console", cfg.Telemetry.Traces.Exporter)

	// Test environment overrides
	t.Setenv("OTEL_SERVICE_NAME", "override-service")
	cfg, err = LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "override-service", cfg.Telemetry.ServiceName)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseConfig(t *testing.T) {
	yamlData := []byte(`
telemetry:
  serviceName: "test-service-bytes"
  metrics:
    enabled: true
    exporter: prometheus
    interval: 5s
`)
	cfg, err := ParseConfig(yamlData)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "test-service-bytes", cfg.Telemetry.ServiceName)
	require.NotNil(t, cfg.Telemetry.Metrics)
	assert.True(t, *cfg.Telemetry.Metrics.Enabled)
	assert.Equal(t, "prometheus", cfg.Telemetry.Metrics.Exporter)
	assert.Equal(t, 5*time.Second, cfg.Telemetry.Metrics.Interval)
}

func TestParseConfig_InvalidExporter(t *testing.T) {
	_, err := ParseConfig([]byte(`
telemetry:
  traces:
    exporter: jaeger
`))
	assert.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	// Check defaults from struct tags
	assert.True(t, cfg.Telemetry.IsEnabled())
	assert.Equal(t, "Node.js", cfg.Telemetry.ServiceName)
	assert.Equal(t, "development", cfg.Telemetry.Environment)
	assert.Equal(t, "http://tracing-server:9411/api/v2/spans", cfg.Telemetry.Zipkin.URL())

	assert.Equal(t, "0.0.0.0:3001", cfg.Service.Address)
	assert.Equal(t, "/nodejs", cfg.Service.PathPrefix)
	assert.Equal(t, "Hello from Node.js! [javascript]", cfg.Service.Greeting)
	assert.Equal(t, "http://wildfy-swarm:3003/wildfly-swarm/users", cfg.Service.UsersURL)
	assert.Equal(t, "https://jsonplaceholder.typicode.com/posts/1", cfg.Service.ClientSpansURL)
	assert.Equal(t, "some data", cfg.Service.ClientSpansPayload)
	assert.Equal(t, 1000, cfg.Service.MaxClientSpans)
	assert.Equal(t, 10*time.Second, cfg.Service.ClientTimeout)
	assert.Equal(t, 5*time.Second, cfg.Service.DialTimeout)
	assert.Equal(t, 10*time.Second, cfg.Service.TLSHandshakeTimeout)
	assert.Equal(t, 5*time.Second, cfg.Service.ResponseHeaderTimeout)
	assert.Equal(t, 90*time.Second, cfg.Service.IdleConnTimeout)
	assert.Zero(t, cfg.Service.MaxConnsPerHost)

	assert.Equal(t, 10*time.Second, cfg.Telemetry.Zipkin.Timeout)
	assert.Empty(t, cfg.Telemetry.Zipkin.Headers)

	assert.False(t, cfg.Events.IsEnabled())
	assert.Equal(t, "users.created", cfg.Events.Subject)
}

func TestLoadConfigDefaults_TracingPort(t *testing.T) {
	t.Setenv("TRACING_PORT", "9999")

	cfg, err := DefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://tracing-server:9999/api/v2/spans", cfg.Telemetry.Zipkin.URL())
}

func TestParseConfig_OutboundAndZipkinSettings(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
service:
  responseHeaderTimeout: 2s
  dialTimeout: 1s
  maxConnsPerHost: 32
telemetry:
  zipkin:
    timeout: 3s
    headers:
      X-Collector-Key: zipkin-key
`))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Service.ResponseHeaderTimeout)
	assert.Equal(t, time.Second, cfg.Service.DialTimeout)
	assert.Equal(t, 32, cfg.Service.MaxConnsPerHost)
	assert.Equal(t, 90*time.Second, cfg.Service.IdleConnTimeout, "unset fields keep their defaults")

	assert.Equal(t, 3*time.Second, cfg.Telemetry.Zipkin.Timeout)
	assert.Equal(t, map[string]string{"X-Collector-Key": "zipkin-key"}, cfg.Telemetry.Zipkin.Headers)
}
