package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/utkarsh5026/streamsim/internal/cpu"
	"github.com/utkarsh5026/streamsim/queue"
)

// RenderStage forwards items from its queue to a Sink on a single dedicated
// goroutine, in queue order.
type RenderStage[T any] struct {
	in   *queue.BoundedQueue[T]
	sink Sink[T]
	cfg  *stageConfig

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	rendered atomic.Uint64
}

// NewRenderStage creates a stopped stage reading from in, which the caller
// owns. It panics if in or sink is nil.
func NewRenderStage[T any](in *queue.BoundedQueue[T], sink Sink[T], opts ...StageOption) *RenderStage[T] {
	if in == nil {
		panic("stream: render stage needs an input queue")
	}
	if sink == nil {
		panic("stream: render stage needs a sink")
	}
	return &RenderStage[T]{
		in:   in,
		sink: sink,
		cfg:  newStageConfig(opts),
	}
}

// Run starts the render goroutine.
func (s *RenderStage[T]) Run() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.loop(ctx)
	}()

	s.running = true
	s.cancel = cancel
	s.done = done

	s.cfg.logger.Info("render stage started")
	return nil
}

// Shutdown stops the render goroutine after it has forwarded everything
// left in the queue, and waits for it to exit.
func (s *RenderStage[T]) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	<-s.done
	s.running = false

	s.cfg.logger.Info("render stage stopped", zap.Uint64("rendered", s.rendered.Load()))
}

// Stats returns the stage counters. A sink cannot refuse an item, so
// Dropped is always zero.
func (s *RenderStage[T]) Stats() StageStats {
	return StageStats{Processed: s.rendered.Load()}
}

func (s *RenderStage[T]) loop(ctx context.Context) {
	defer cpu.Dedicate(0, s.cfg.pinThreads)()

	for {
		item, err := s.in.ReadContext(ctx)
		switch {
		case err == nil:
			s.render(item)
		case errors.Is(err, queue.ErrTimeout):
			// No data yet.
		default:
			for {
				item, ok := s.in.ReadNonBlocking()
				if !ok {
					return
				}
				s.render(item)
			}
		}
	}
}

func (s *RenderStage[T]) render(item T) {
	s.sink.Render(item)
	s.rendered.Add(1)
	s.cfg.observer.FrameRendered()
}
