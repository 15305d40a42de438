package stream

import (
	"sync"

	"go.uber.org/zap"

	"github.com/utkarsh5026/streamsim/pool"
	"github.com/utkarsh5026/streamsim/queue"
)

// PoolDecodeStage decodes on a worker pool. It is itself the InputHandler
// for incoming frames: every frame becomes one pool task that decodes it and
// writes the result to the output queue. There is no polling loop.
//
// The pool starts with the stage, so frames handed over before Run are
// decoded too. After Shutdown the stage rejects input until Run starts a
// fresh pool.
type PoolDecodeStage[In, Out any] struct {
	core *decodeCore[In, Out]
	cfg  *stageConfig

	lifecycle sync.Mutex // serializes Run and Shutdown

	mu      sync.RWMutex
	running bool
	closed  bool
	pool    *pool.WorkerPool[In]
}

// NewPoolDecodeStage creates a stage writing into out, which the caller
// owns, and starts its pool. It panics if out or dec is nil.
func NewPoolDecodeStage[In, Out any](
	out *queue.BoundedQueue[Out],
	dec Decoder[In, Out],
	opts ...StageOption,
) *PoolDecodeStage[In, Out] {
	cfg := newStageConfig(opts)
	s := &PoolDecodeStage[In, Out]{
		core: newDecodeCore(out, dec, cfg),
		cfg:  cfg,
	}
	s.pool = s.newPool()
	return s
}

func (s *PoolDecodeStage[In, Out]) newPool() *pool.WorkerPool[In] {
	return pool.New(s.core.process,
		pool.WithWorkerCount(s.cfg.workers),
		pool.WithQueueCapacity(s.cfg.poolCapacity),
		pool.WithPinnedWorkers(s.cfg.pinThreads),
		pool.WithLogger(s.cfg.logger),
	)
}

// Run marks the stage running, starting a new pool if a previous Shutdown
// stopped the old one.
func (s *PoolDecodeStage[In, Out]) Run() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if s.closed {
		s.pool = s.newPool()
		s.closed = false
	}
	s.running = true

	s.cfg.logger.Info("pool decode stage started", zap.Int("workers", s.cfg.workers))
	return nil
}

// OnInputData enqueues item for decoding. It never blocks for long and
// returns false only after Shutdown.
func (s *PoolDecodeStage[In, Out]) OnInputData(item In) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	s.pool.Enqueue(item)
	return true
}

// Shutdown stops accepting input, runs every enqueued task, including
// overflow, and joins the pool workers. Input offered during the drain is
// rejected immediately.
func (s *PoolDecodeStage[In, Out]) Shutdown() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.running = false
	p := s.pool
	s.mu.Unlock()

	p.Stop()

	st := s.core.stats()
	s.cfg.logger.Info("pool decode stage stopped",
		zap.Uint64("decoded", st.Processed),
		zap.Uint64("dropped", st.Dropped),
	)
}

// Stats returns the stage counters.
func (s *PoolDecodeStage[In, Out]) Stats() StageStats {
	return s.core.stats()
}

// PoolStats returns a snapshot of the current pool.
func (s *PoolDecodeStage[In, Out]) PoolStats() pool.Stats {
	s.mu.RLock()
	p := s.pool
	s.mu.RUnlock()
	return p.Stats()
}
