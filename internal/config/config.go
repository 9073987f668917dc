package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/logging"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	InfluxDB  InfluxDBConfig  `mapstructure:"influxdb"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

// AppConfig general metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// EngineConfig holds feature extraction and classifier settings
type EngineConfig struct {
	NominalFrequencyHz float64 `mapstructure:"nominal_frequency_hz"`
	ModelPath          string  `mapstructure:"model_path"`
	ScalerPath         string  `mapstructure:"scaler_path"`
	Jitter             string  `mapstructure:"jitter"`
	JitterSeed         uint64  `mapstructure:"jitter_seed"`
}

// KafkaConfig holds Kafka-related configuration
type KafkaConfig struct {
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
	GroupID       string        `mapstructure:"group_id"`
	ConsumerCount int           `mapstructure:"consumer_count"`
	BatchSize     int           `mapstructure:"batch_size"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
	AlertTopic    string        `mapstructure:"alert_topic"`
}

// InfluxDBConfig holds InfluxDB-related configuration
type InfluxDBConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	Org          string        `mapstructure:"org"`
	Token        string        `mapstructure:"token"`
	Bucket       string        `mapstructure:"bucket"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// ProcessorConfig holds processor-related configuration
type ProcessorConfig struct {
	WorkerCount         int           `mapstructure:"worker_count"`
	QueueSize           int           `mapstructure:"queue_size"`
	EnableAggregations  bool          `mapstructure:"enable_aggregations"`
	AggregationInterval time.Duration `mapstructure:"aggregation_interval"`
	SinkTimeout         time.Duration `mapstructure:"sink_timeout"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the fault event store
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig covers the real-time broadcast channel
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// AlertingConfig maps severity tiers to the operator roles notified
type AlertingConfig struct {
	Enabled     bool                `mapstructure:"enabled"`
	MinSeverity string              `mapstructure:"min_severity"`
	Recipients  map[string][]string `mapstructure:"recipients"`
}

// HTTPConfig sets the health, metrics and predict endpoint listener
type HTTPConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// legacyEnv keeps the unprefixed variable names deployments already set
var legacyEnv = map[string]string{
	"kafka.brokers":                 "KAFKA_BROKERS",
	"kafka.topic":                   "KAFKA_TOPIC",
	"kafka.group_id":                "KAFKA_GROUP_ID",
	"kafka.consumer_count":          "KAFKA_CONSUMER_COUNT",
	"kafka.batch_size":              "KAFKA_BATCH_SIZE",
	"kafka.batch_timeout":           "KAFKA_BATCH_TIMEOUT",
	"influxdb.url":                  "INFLUXDB_URL",
	"influxdb.org":                  "INFLUXDB_ORG",
	"influxdb.token":                "INFLUX_TOKEN",
	"influxdb.bucket":               "INFLUXDB_BUCKET",
	"influxdb.batch_size":           "INFLUXDB_BATCH_SIZE",
	"influxdb.batch_timeout":        "INFLUXDB_BATCH_TIMEOUT",
	"processor.worker_count":        "PROCESSOR_WORKER_COUNT",
	"processor.queue_size":          "PROCESSOR_QUEUE_SIZE",
	"processor.enable_aggregations": "PROCESSOR_ENABLE_AGGREGATIONS",
}

const envPrefix = "GRIDFAULT"

// Load builds configuration from file, environment, and defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gridfault")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("engine.nominal_frequency_hz", 50.0)
	v.SetDefault("engine.model_path", "")
	v.SetDefault("engine.scaler_path", "")
	v.SetDefault("engine.jitter", "hashed")
	v.SetDefault("engine.jitter_seed", 1)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "waveform-windows")
	v.SetDefault("kafka.group_id", "smart-grid-fault-detector")
	v.SetDefault("kafka.consumer_count", 4)
	v.SetDefault("kafka.batch_size", 64)
	v.SetDefault("kafka.batch_timeout", "1s")
	v.SetDefault("kafka.alert_topic", "fault-alerts")

	v.SetDefault("influxdb.enabled", true)
	v.SetDefault("influxdb.url", "http://localhost:8086")
	v.SetDefault("influxdb.org", "Solo")
	v.SetDefault("influxdb.token", "")
	v.SetDefault("influxdb.bucket", "smart-grid-monitor")
	v.SetDefault("influxdb.batch_size", 5000)
	v.SetDefault("influxdb.batch_timeout", "500ms")

	v.SetDefault("processor.worker_count", 4)
	v.SetDefault("processor.queue_size", 10000)
	v.SetDefault("processor.enable_aggregations", true)
	v.SetDefault("processor.aggregation_interval", "10s")
	v.SetDefault("processor.sink_timeout", "5s")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "fault-events")

	v.SetDefault("alerting.enabled", true)
	v.SetDefault("alerting.min_severity", "medium")
	v.SetDefault("alerting.recipients", map[string][]string{
		"low":      {"operator"},
		"medium":   {"operator", "supervisor"},
		"high":     {"operator", "supervisor", "field_crew"},
		"critical": {"operator", "supervisor", "field_crew", "control_room_manager"},
	})

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "10s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

var severities = map[string]bool{"low": true, "medium": true, "high": true, "critical": true}

// Validate performs basic sanity checks on the configuration values
func (c *Config) Validate() error {
	if c.Engine.NominalFrequencyHz <= 0 {
		return fmt.Errorf("engine.nominal_frequency_hz must be greater than zero")
	}
	switch strings.ToLower(c.Engine.Jitter) {
	case "", "random", "seeded", "hashed", "fixed":
	default:
		return fmt.Errorf("engine.jitter must be one of random, seeded, hashed, fixed")
	}
	if c.Engine.ScalerPath != "" && c.Engine.ModelPath == "" {
		return fmt.Errorf("engine.scaler_path requires engine.model_path")
	}
	if c.Processor.WorkerCount <= 0 {
		return fmt.Errorf("processor.worker_count must be greater than zero")
	}
	if c.Processor.QueueSize <= 0 {
		return fmt.Errorf("processor.queue_size must be greater than zero")
	}
	if c.Processor.EnableAggregations && c.Processor.AggregationInterval <= 0 {
		return fmt.Errorf("processor.aggregation_interval must be greater than zero")
	}
	if c.Kafka.ConsumerCount < 0 {
		return fmt.Errorf("kafka.consumer_count cannot be negative")
	}
	if c.Kafka.ConsumerCount > 0 {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers must not be empty")
		}
		if c.Kafka.BatchSize <= 0 || c.Kafka.BatchTimeout <= 0 {
			return fmt.Errorf("kafka.batch_size and kafka.batch_timeout must be greater than zero")
		}
	}
	if c.Alerting.Enabled {
		if !severities[strings.ToLower(c.Alerting.MinSeverity)] {
			return fmt.Errorf("alerting.min_severity %q is not a severity", c.Alerting.MinSeverity)
		}
		for tier := range c.Alerting.Recipients {
			if !severities[strings.ToLower(tier)] {
				return fmt.Errorf("alerting.recipients has unknown severity %q", tier)
			}
		}
	}
	return nil
}
