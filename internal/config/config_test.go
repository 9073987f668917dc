package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 50.0, cfg.Engine.NominalFrequencyHz)
	assert.Equal(t, "hashed", cfg.Engine.Jitter)
	assert.Empty(t, cfg.Engine.ModelPath)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "waveform-windows", cfg.Kafka.Topic)
	assert.Equal(t, time.Second, cfg.Kafka.BatchTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.InfluxDB.BatchTimeout)
	assert.Equal(t, 4, cfg.Processor.WorkerCount)
	assert.Equal(t, "fault-events", cfg.Redis.Channel)
	assert.Equal(t, []string{"operator", "supervisor"}, cfg.Alerting.Recipients["medium"])
	assert.Len(t, cfg.Alerting.Recipients["critical"], 4)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GRIDFAULT_ENGINE_NOMINAL_FREQUENCY_HZ", "60")
	t.Setenv("GRIDFAULT_ENGINE_MODEL_PATH", "/models/fault.json")
	t.Setenv("KAFKA_TOPIC", "legacy-topic")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("GRIDFAULT_PROCESSOR_WORKER_COUNT", "9")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60.0, cfg.Engine.NominalFrequencyHz)
	assert.Equal(t, "/models/fault.json", cfg.Engine.ModelPath)
	assert.Equal(t, "legacy-topic", cfg.Kafka.Topic)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 9, cfg.Processor.WorkerCount)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridfault.yaml")
	content := `
engine:
  jitter: seeded
  jitter_seed: 77
processor:
  aggregation_interval: 30s
alerting:
  min_severity: high
http:
  addr: ":9100"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "seeded", cfg.Engine.Jitter)
	assert.Equal(t, uint64(77), cfg.Engine.JitterSeed)
	assert.Equal(t, 30*time.Second, cfg.Processor.AggregationInterval)
	assert.Equal(t, "high", cfg.Alerting.MinSeverity)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"nominal frequency", func(c *Config) { c.Engine.NominalFrequencyHz = 0 }},
		{"jitter kind", func(c *Config) { c.Engine.Jitter = "gaussian" }},
		{"scaler without model", func(c *Config) { c.Engine.ScalerPath = "scaler.json" }},
		{"workers", func(c *Config) { c.Processor.WorkerCount = 0 }},
		{"queue", func(c *Config) { c.Processor.QueueSize = -1 }},
		{"aggregation interval", func(c *Config) { c.Processor.AggregationInterval = 0 }},
		{"consumer count", func(c *Config) { c.Kafka.ConsumerCount = -1 }},
		{"brokers", func(c *Config) { c.Kafka.Brokers = nil }},
		{"batch size", func(c *Config) { c.Kafka.BatchSize = 0 }},
		{"min severity", func(c *Config) { c.Alerting.MinSeverity = "urgent" }},
		{"recipient tier", func(c *Config) { c.Alerting.Recipients["urgent"] = []string{"ops"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, validConfig(t).Validate())
}
