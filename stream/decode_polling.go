package stream

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/streamsim/internal/cpu"
	"github.com/utkarsh5026/streamsim/queue"
)

// PollingDecodeStage runs a fixed number of dedicated goroutines that read
// from the input queue, decode, and write to the output queue.
//
// Reads wait on the queue itself with its timeout; an empty queue never
// spins. On Shutdown every goroutine keeps going until the input queue is
// empty, so nothing written before Shutdown is lost.
type PollingDecodeStage[In, Out any] struct {
	in   *queue.BoundedQueue[In]
	core *decodeCore[In, Out]
	cfg  *stageConfig

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	workers *errgroup.Group
}

// NewPollingDecodeStage creates a stopped stage. The queues are borrowed:
// the caller owns them and must keep them alive while the stage runs.
// It panics if a queue or the decoder is nil.
func NewPollingDecodeStage[In, Out any](
	in *queue.BoundedQueue[In],
	out *queue.BoundedQueue[Out],
	dec Decoder[In, Out],
	opts ...StageOption,
) *PollingDecodeStage[In, Out] {
	if in == nil {
		panic("stream: decode stage needs an input queue")
	}
	cfg := newStageConfig(opts)
	return &PollingDecodeStage[In, Out]{
		in:   in,
		core: newDecodeCore(out, dec, cfg),
		cfg:  cfg,
	}
}

// Run starts the decode goroutines.
func (s *PollingDecodeStage[In, Out]) Run() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := new(errgroup.Group)
	for i := range s.cfg.workers {
		g.Go(func() error {
			s.loop(ctx, i)
			return nil
		})
	}

	s.running = true
	s.cancel = cancel
	s.workers = g

	s.cfg.logger.Info("polling decode stage started", zap.Int("workers", s.cfg.workers))
	return nil
}

// Shutdown signals the goroutines, waits for them to drain the input queue
// and joins them. Calling it on a stopped stage does nothing.
func (s *PollingDecodeStage[In, Out]) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	_ = s.workers.Wait()
	s.running = false

	st := s.core.stats()
	s.cfg.logger.Info("polling decode stage stopped",
		zap.Uint64("decoded", st.Processed),
		zap.Uint64("dropped", st.Dropped),
	)
}

// Stats returns the stage counters.
func (s *PollingDecodeStage[In, Out]) Stats() StageStats {
	return s.core.stats()
}

func (s *PollingDecodeStage[In, Out]) loop(ctx context.Context, id int) {
	defer cpu.Dedicate(id, s.cfg.pinThreads)()

	for {
		item, err := s.in.ReadContext(ctx)
		switch {
		case err == nil:
			s.core.process(item)
		case errors.Is(err, queue.ErrTimeout):
			// Nothing arrived within the wait timeout; check ctx again.
		default:
			s.drain()
			return
		}
	}
}

func (s *PollingDecodeStage[In, Out]) drain() {
	for {
		item, ok := s.in.ReadNonBlocking()
		if !ok {
			return
		}
		s.core.process(item)
	}
}
