package pool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/streamsim/internal/cpu"
	"github.com/utkarsh5026/streamsim/internal/ring"
)

// WorkerPool runs a fixed set of long-lived workers that execute tasks of
// type T. Tasks land in a bounded internal queue; when it is full they go to
// an unbounded overflow queue, so Enqueue never blocks and never fails.
//
// Every time a worker takes a task it refills the internal queue from the
// overflow queue before releasing the lock, then executes the task with no
// lock held. The pool has no notion of task result or failure: a task that
// panics crashes the process.
//
// Type parameters:
//   - T: The task type handed to the executor
type WorkerPool[T any] struct {
	exec func(T)

	mu       sync.Mutex
	cond     *sync.Cond
	queue    *ring.Fixed[T]
	overflow *ring.FIFO[T]
	running  bool

	workerCount int
	stopPolicy  StopPolicy
	rateLimiter *rate.Limiter
	pinWorkers  bool
	logger      *zap.Logger

	beforeTaskStart func(T)
	onTaskEnd       func(T, time.Duration)

	workers  errgroup.Group
	stopOnce sync.Once

	executed  atomic.Uint64
	discarded atomic.Uint64
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Workers   int
	Queued    int    // tasks in the internal queue
	Overflow  int    // tasks in the overflow queue
	Executed  uint64 // tasks that ran to completion
	Discarded uint64 // tasks enqueued after Stop or dropped by DropOverflow
	Running   bool
}

// New creates a worker pool and starts its workers.
//
// Default configuration:
//   - workerCount: runtime.GOMAXPROCS(0)
//   - queueCapacity: equal to workerCount
//   - stopPolicy: DrainOverflow
//
// It panics if exec is nil or a hook's task type does not match T.
//
// Example:
//
//	p := pool.New(func(f Frame) { out.WriteBlocking(decode(f)) },
//	    pool.WithWorkerCount(4),
//	    pool.WithQueueCapacity(4),
//	)
//	defer p.Stop()
//	p.Enqueue(frame)
func New[T any](exec func(T), opts ...Option) *WorkerPool[T] {
	if exec == nil {
		panic("pool: nil executor")
	}

	cfg := &config{
		workerCount: runtime.GOMAXPROCS(0),
		stopPolicy:  DrainOverflow,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.queueCapacity == 0 {
		cfg.queueCapacity = cfg.workerCount
	}

	before, after := checkHooks[T](cfg)

	p := &WorkerPool[T]{
		exec:            exec,
		queue:           ring.NewFixed[T](cfg.queueCapacity),
		overflow:        ring.NewFIFO[T](cfg.queueCapacity),
		running:         true,
		workerCount:     cfg.workerCount,
		stopPolicy:      cfg.stopPolicy,
		rateLimiter:     cfg.rateLimiter,
		pinWorkers:      cfg.pinWorkers,
		logger:          cfg.logger,
		beforeTaskStart: before,
		onTaskEnd:       after,
	}
	p.cond = sync.NewCond(&p.mu)

	for i := range p.workerCount {
		p.workers.Go(func() error {
			p.worker(i)
			return nil
		})
	}

	p.logger.Debug("worker pool started",
		zap.Int("workers", p.workerCount),
		zap.Int("queue_capacity", cfg.queueCapacity),
		zap.Stringer("stop_policy", p.stopPolicy),
	)
	return p
}

// NewFuncPool creates a pool whose tasks are plain closures.
func NewFuncPool(opts ...Option) *WorkerPool[func()] {
	return New(func(task func()) { task() }, opts...)
}

// Enqueue submits a task. It goes to the internal queue when there is room
// and to the overflow queue otherwise. Enqueue never blocks.
//
// Tasks enqueued after Stop are discarded and counted in Stats.Discarded.
func (p *WorkerPool[T]) Enqueue(task T) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		p.discarded.Add(1)
		p.logger.Debug("task discarded: pool stopped")
		return
	}
	if !p.queue.Push(task) {
		p.overflow.Push(task)
	}
	p.mu.Unlock()

	p.cond.Signal()
}

// Stop tells the workers to exit once the internal queue is drained, wakes
// them and waits for all of them to return. With DrainOverflow the overflow
// queue is drained too; with DropOverflow its contents are discarded.
//
// Stop is safe to call more than once and from several goroutines; every
// call returns after the workers have exited. It must not be called from
// inside a task.
func (p *WorkerPool[T]) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.running = false
		dropped := 0
		if p.stopPolicy == DropOverflow {
			dropped = p.overflow.Clear()
			p.discarded.Add(uint64(dropped))
		}
		p.mu.Unlock()

		p.cond.Broadcast()
		_ = p.workers.Wait()

		p.logger.Debug("worker pool stopped",
			zap.Uint64("executed", p.executed.Load()),
			zap.Int("overflow_dropped", dropped),
		)
	})
}

// Stats returns a snapshot of queue sizes and counters.
func (p *WorkerPool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Workers:   p.workerCount,
		Queued:    p.queue.Len(),
		Overflow:  p.overflow.Len(),
		Executed:  p.executed.Load(),
		Discarded: p.discarded.Load(),
		Running:   p.running,
	}
}

func (p *WorkerPool[T]) worker(id int) {
	if p.pinWorkers {
		defer cpu.Dedicate(id, true)()
	}

	for {
		task, ok := p.next()
		if !ok {
			return
		}
		p.run(task)
	}
}

// next blocks until a task is available or the pool is stopping with
// nothing left to run.
func (p *WorkerPool[T]) next() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if task, ok := p.queue.Pop(); ok {
			p.refill()
			return task, true
		}

		if !p.running {
			if p.overflow.Len() > 0 {
				p.refill()
				continue
			}
			var zero T
			return zero, false
		}

		p.cond.Wait()
	}
}

// refill moves as many overflow tasks as fit into the internal queue.
// Must be called with p.mu held.
func (p *WorkerPool[T]) refill() {
	moved := 0
	for p.queue.Free() > 0 {
		task, ok := p.overflow.Pop()
		if !ok {
			break
		}
		p.queue.Push(task)
		moved++
	}

	// More than one task may now be runnable; wake idle workers for them.
	if moved > 0 {
		p.cond.Broadcast()
	}
}

func (p *WorkerPool[T]) run(task T) {
	if p.rateLimiter != nil {
		_ = p.rateLimiter.Wait(context.Background())
	}

	if p.beforeTaskStart != nil {
		p.beforeTaskStart(task)
	}

	start := time.Now()
	p.exec(task)
	elapsed := time.Since(start)
	p.executed.Add(1)

	if p.onTaskEnd != nil {
		p.onTaskEnd(task, elapsed)
	}
}
