package pool

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// StopPolicy decides what happens to overflow tasks when Stop is called.
type StopPolicy int

const (
	// DrainOverflow runs every task that was enqueued before Stop,
	// including those still waiting in the overflow queue (default).
	DrainOverflow StopPolicy = iota
	// DropOverflow discards whatever sits in the overflow queue at Stop time.
	// Tasks already in the internal queue still run.
	DropOverflow
)

func (p StopPolicy) String() string {
	switch p {
	case DrainOverflow:
		return "drain-overflow"
	case DropOverflow:
		return "drop-overflow"
	default:
		return fmt.Sprintf("StopPolicy(%d)", int(p))
	}
}

// Option is a functional option for configuring the worker pool.
type Option func(*config)

type config struct {
	workerCount   int
	queueCapacity int
	stopPolicy    StopPolicy
	rateLimiter   *rate.Limiter
	pinWorkers    bool
	logger        *zap.Logger

	beforeTaskStart     func(any)
	beforeTaskStartType string
	onTaskEnd           func(any, time.Duration)
	onTaskEndType       string
}

// WithWorkerCount sets the number of long-lived workers.
// If not specified, defaults to runtime.GOMAXPROCS(0).
func WithWorkerCount(count int) Option {
	return func(cfg *config) {
		if count > 0 {
			cfg.workerCount = count
		}
	}
}

// WithQueueCapacity bounds the internal task queue. Tasks submitted while it
// is full go to the unbounded overflow queue instead.
// If not specified, defaults to the worker count.
func WithQueueCapacity(size int) Option {
	return func(cfg *config) {
		if size > 0 {
			cfg.queueCapacity = size
		}
	}
}

// WithStopPolicy selects how Stop treats overflow tasks.
func WithStopPolicy(p StopPolicy) Option {
	return func(cfg *config) {
		cfg.stopPolicy = p
	}
}

// WithRateLimit caps how many tasks per second the workers start, across the
// whole pool. Enqueue is never throttled; tasks just wait longer in the queue.
//
// Example:
//
//	WithRateLimit(250, 10) // Allow 250 tasks/sec with burst of 10
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithPinnedWorkers locks every worker to its own OS thread and pins that
// thread to a core where the platform allows it.
func WithPinnedWorkers(pin bool) Option {
	return func(cfg *config) {
		cfg.pinWorkers = pin
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithBeforeTaskStart registers a hook called on the worker goroutine right
// before a task executes. Its task type must match the pool's task type.
func WithBeforeTaskStart[T any](fn func(T)) Option {
	return func(cfg *config) {
		if fn == nil {
			return
		}
		cfg.beforeTaskStart = func(task any) { fn(task.(T)) }
		cfg.beforeTaskStartType = typeName[T]()
	}
}

// WithOnTaskEnd registers a hook called after a task returns, with the time
// the task took to execute. Its task type must match the pool's task type.
func WithOnTaskEnd[T any](fn func(T, time.Duration)) Option {
	return func(cfg *config) {
		if fn == nil {
			return
		}
		cfg.onTaskEnd = func(task any, d time.Duration) { fn(task.(T), d) }
		cfg.onTaskEndType = typeName[T]()
	}
}

func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", &zero)
}

// checkHooks validates user-supplied hooks against the pool's task type and
// returns typed wrappers. A mismatch is a programming error and panics.
func checkHooks[T any](cfg *config) (before func(T), after func(T, time.Duration)) {
	want := typeName[T]()

	if cfg.beforeTaskStart != nil {
		if cfg.beforeTaskStartType != want {
			panic(fmt.Sprintf("WithBeforeTaskStart hook expects task type %s, but pool processes type %s",
				cfg.beforeTaskStartType, want))
		}
		before = func(task T) { cfg.beforeTaskStart(task) }
	}

	if cfg.onTaskEnd != nil {
		if cfg.onTaskEndType != want {
			panic(fmt.Sprintf("WithOnTaskEnd hook expects task type %s, but pool processes type %s",
				cfg.onTaskEndType, want))
		}
		after = func(task T, d time.Duration) { cfg.onTaskEnd(task, d) }
	}

	return before, after
}
