// Package config loads simulator settings from environment variables.
//
// Each section is read under its own prefix: STREAMSIM_PIPELINE_PRODUCERS,
// STREAMSIM_LOGGING_LEVEL, STREAMSIM_METRICS_ADDR and so on.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/utkarsh5026/streamsim/internal/logging"
	"github.com/utkarsh5026/streamsim/stream"
)

// Prefix is prepended to every environment variable name.
const Prefix = "STREAMSIM"

// Config holds all application configuration.
type Config struct {
	Pipeline PipelineConfig
	Logging  LogConfig
	Metrics  MetricsConfig
}

// PipelineConfig mirrors stream.Config.
type PipelineConfig struct {
	Producers         int           `envconfig:"PRODUCERS" default:"4"`
	RunDuration       time.Duration `envconfig:"RUN_DURATION" default:"6s"`
	ProduceInterval   time.Duration `envconfig:"PRODUCE_INTERVAL" default:"1ms"`
	InputAttempts     int           `envconfig:"INPUT_ATTEMPTS" default:"3"`
	RetryBackoff      time.Duration `envconfig:"RETRY_BACKOFF" default:"10ms"`
	Strategy          string        `envconfig:"STRATEGY" default:"polling"`
	DecodeWorkers     int           `envconfig:"DECODE_WORKERS" default:"4"`
	DecodeLatency     time.Duration `envconfig:"DECODE_LATENCY" default:"4ms"`
	PoolQueueCapacity int           `envconfig:"POOL_QUEUE_CAPACITY" default:"0"`
	WriteAttempts     int           `envconfig:"WRITE_ATTEMPTS" default:"3"`
	QueueCapacity     int           `envconfig:"QUEUE_CAPACITY" default:"1000"`
	WaitTimeout       time.Duration `envconfig:"WAIT_TIMEOUT" default:"2s"`
	PinThreads        bool          `envconfig:"PIN_THREADS" default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info"`
	Development bool   `envconfig:"DEV" default:"false"`
}

// MetricsConfig holds the Prometheus endpoint configuration. An empty
// address disables the endpoint.
type MetricsConfig struct {
	Addr string `envconfig:"ADDR"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	d := stream.DefaultConfig()
	return &Config{
		Pipeline: PipelineConfig{
			Producers:       d.Producers,
			RunDuration:     d.RunDuration,
			ProduceInterval: d.ProduceInterval,
			InputAttempts:   d.InputAttempts,
			RetryBackoff:    d.RetryBackoff,
			Strategy:        string(d.Strategy),
			DecodeWorkers:   d.DecodeWorkers,
			DecodeLatency:   d.DecodeLatency,
			WriteAttempts:   d.WriteAttempts,
			QueueCapacity:   d.QueueCapacity,
			WaitTimeout:     d.WaitTimeout,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Stream converts the pipeline section into a validated stream.Config.
func (c *Config) Stream() (stream.Config, error) {
	strategy, err := stream.ParseStrategy(c.Pipeline.Strategy)
	if err != nil {
		return stream.Config{}, err
	}

	sc := stream.Config{
		Producers:         c.Pipeline.Producers,
		RunDuration:       c.Pipeline.RunDuration,
		ProduceInterval:   c.Pipeline.ProduceInterval,
		InputAttempts:     c.Pipeline.InputAttempts,
		RetryBackoff:      c.Pipeline.RetryBackoff,
		Strategy:          strategy,
		DecodeWorkers:     c.Pipeline.DecodeWorkers,
		DecodeLatency:     c.Pipeline.DecodeLatency,
		PoolQueueCapacity: c.Pipeline.PoolQueueCapacity,
		WriteAttempts:     c.Pipeline.WriteAttempts,
		QueueCapacity:     c.Pipeline.QueueCapacity,
		WaitTimeout:       c.Pipeline.WaitTimeout,
		PinThreads:        c.Pipeline.PinThreads,
	}
	if err := sc.Validate(); err != nil {
		return stream.Config{}, err
	}
	return sc, nil
}

// Logger returns the logging section as a logging.Config.
func (c *Config) Logger() logging.Config {
	return logging.Config{
		Level:       c.Logging.Level,
		Development: c.Logging.Development,
	}
}
