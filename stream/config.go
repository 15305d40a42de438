package stream

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is wrapped by every Config validation error.
var ErrInvalidConfig = errors.New("stream: invalid config")

// Strategy selects how the decode stage dispatches work.
type Strategy string

const (
	// StrategyPolling uses dedicated goroutines reading the decodable queue.
	StrategyPolling Strategy = "polling"
	// StrategyPool enqueues one task per frame on a worker pool.
	StrategyPool Strategy = "pool"
)

// ParseStrategy converts a mode switch value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyPolling, StrategyPool:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q (want %q or %q)",
			ErrInvalidConfig, s, StrategyPolling, StrategyPool)
	}
}

// Config sizes and paces a Service.
type Config struct {
	Producers       int           // simulated network threads
	RunDuration     time.Duration // how long each producer runs
	ProduceInterval time.Duration // pause between frames of one producer
	InputAttempts   int           // writes per frame before a producer drops it
	RetryBackoff    time.Duration // first pause between those writes

	Strategy          Strategy
	DecodeWorkers     int
	DecodeLatency     time.Duration
	PoolQueueCapacity int // pool strategy only; 0 means DecodeWorkers
	WriteAttempts     int // writes per decoded frame before the decoder drops it

	QueueCapacity int
	WaitTimeout   time.Duration // 0 waits forever
	PinThreads    bool
}

// DefaultConfig returns the simulator defaults: four producers emitting a
// frame every millisecond for six seconds, decoded by four polling workers.
func DefaultConfig() Config {
	return Config{
		Producers:       4,
		RunDuration:     6 * time.Second,
		ProduceInterval: time.Millisecond,
		InputAttempts:   3,
		RetryBackoff:    10 * time.Millisecond,

		Strategy:      StrategyPolling,
		DecodeWorkers: 4,
		DecodeLatency: DefaultDecodeLatency,
		WriteAttempts: DefaultWriteAttempts,

		QueueCapacity: 1000,
		WaitTimeout:   2 * time.Second,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Producers <= 0:
		return fmt.Errorf("%w: producers must be positive, got %d", ErrInvalidConfig, c.Producers)
	case c.RunDuration <= 0:
		return fmt.Errorf("%w: run duration must be positive, got %s", ErrInvalidConfig, c.RunDuration)
	case c.ProduceInterval <= 0:
		return fmt.Errorf("%w: produce interval must be positive, got %s", ErrInvalidConfig, c.ProduceInterval)
	case c.InputAttempts <= 0:
		return fmt.Errorf("%w: input attempts must be positive, got %d", ErrInvalidConfig, c.InputAttempts)
	case c.RetryBackoff < 0:
		return fmt.Errorf("%w: retry backoff must not be negative", ErrInvalidConfig)
	case c.DecodeWorkers <= 0:
		return fmt.Errorf("%w: decode workers must be positive, got %d", ErrInvalidConfig, c.DecodeWorkers)
	case c.DecodeLatency < 0:
		return fmt.Errorf("%w: decode latency must not be negative", ErrInvalidConfig)
	case c.PoolQueueCapacity < 0:
		return fmt.Errorf("%w: pool queue capacity must not be negative", ErrInvalidConfig)
	case c.WriteAttempts <= 0:
		return fmt.Errorf("%w: write attempts must be positive, got %d", ErrInvalidConfig, c.WriteAttempts)
	case c.QueueCapacity <= 0:
		return fmt.Errorf("%w: queue capacity must be positive, got %d", ErrInvalidConfig, c.QueueCapacity)
	case c.WaitTimeout < 0:
		return fmt.Errorf("%w: wait timeout must not be negative", ErrInvalidConfig)
	}
	_, err := ParseStrategy(string(c.Strategy))
	return err
}
