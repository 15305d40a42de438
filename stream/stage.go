package stream

import (
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/utkarsh5026/streamsim/queue"
)

var (
	// ErrAlreadyRunning is returned by Run on a stage or service that is running.
	ErrAlreadyRunning = errors.New("stream: already running")
	// ErrStopped is returned by Service.Run after Shutdown.
	ErrStopped = errors.New("stream: service stopped")
)

// DefaultWriteAttempts is how many times a decoded frame is offered to the
// output queue before it is dropped.
const DefaultWriteAttempts = 3

// Stage is a pipeline component with a goroutine lifecycle.
type Stage interface {
	Run() error
	Shutdown()
	Stats() StageStats
}

// StageStats counts what a stage did with the items it took.
type StageStats struct {
	Processed uint64 // items handed downstream
	Dropped   uint64 // items lost because downstream stayed full
}

// StageOption configures a stage.
type StageOption func(*stageConfig)

type stageConfig struct {
	workers       int
	poolCapacity  int
	writeAttempts int
	pinThreads    bool
	logger        *zap.Logger
	observer      Observer
}

func newStageConfig(opts []StageOption) *stageConfig {
	cfg := &stageConfig{
		workers:       4,
		writeAttempts: DefaultWriteAttempts,
		logger:        zap.NewNop(),
		observer:      nopObserver{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithWorkers sets the number of decode goroutines (polling) or pool
// workers (pool). Default 4. Ignored by RenderStage.
func WithWorkers(n int) StageOption {
	return func(cfg *stageConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithPoolCapacity bounds the internal queue of the decode pool.
// Defaults to the worker count.
func WithPoolCapacity(n int) StageOption {
	return func(cfg *stageConfig) {
		if n > 0 {
			cfg.poolCapacity = n
		}
	}
}

// WithWriteAttempts sets how many timed writes a decoded frame gets before
// it is dropped. Default 3.
func WithWriteAttempts(n int) StageOption {
	return func(cfg *stageConfig) {
		if n > 0 {
			cfg.writeAttempts = n
		}
	}
}

// WithPinnedThreads locks stage goroutines to OS threads and pins them to
// cores where supported.
func WithPinnedThreads(pin bool) StageOption {
	return func(cfg *stageConfig) {
		cfg.pinThreads = pin
	}
}

// WithStageLogger sets the stage logger.
func WithStageLogger(l *zap.Logger) StageOption {
	return func(cfg *stageConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithStageObserver reports frame events to o.
func WithStageObserver(o Observer) StageOption {
	return func(cfg *stageConfig) {
		if o != nil {
			cfg.observer = o
		}
	}
}

// decodeCore is the per-item work shared by both decode strategies.
type decodeCore[In, Out any] struct {
	out      *queue.BoundedQueue[Out]
	dec      Decoder[In, Out]
	attempts int
	log      *zap.Logger
	obs      Observer

	processed atomic.Uint64
	dropped   atomic.Uint64
}

func newDecodeCore[In, Out any](out *queue.BoundedQueue[Out], dec Decoder[In, Out], cfg *stageConfig) *decodeCore[In, Out] {
	if out == nil {
		panic("stream: decode stage needs an output queue")
	}
	if dec == nil {
		panic("stream: decode stage needs a decoder")
	}
	return &decodeCore[In, Out]{
		out:      out,
		dec:      dec,
		attempts: cfg.writeAttempts,
		log:      cfg.logger,
		obs:      cfg.observer,
	}
}

func (c *decodeCore[In, Out]) process(item In) {
	start := time.Now()
	decoded := c.dec.Decode(item)
	latency := time.Since(start)

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if c.out.WriteBlocking(decoded) {
			c.processed.Add(1)
			c.obs.FrameDecoded(latency)
			return
		}
		c.log.Debug("decoded queue full", zap.Int("attempt", attempt))
	}

	c.dropped.Add(1)
	c.obs.FrameDropped(StageDecode)
	c.log.Warn("decoded frame dropped", zap.Int("attempts", c.attempts))
}

func (c *decodeCore[In, Out]) stats() StageStats {
	return StageStats{
		Processed: c.processed.Load(),
		Dropped:   c.dropped.Load(),
	}
}
