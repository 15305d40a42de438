package stream

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/streamsim/queue"
)

var (
	_ Stage               = (*PollingDecodeStage[Frame, Frame])(nil)
	_ Stage               = (*PoolDecodeStage[Frame, Frame])(nil)
	_ Stage               = (*RenderStage[Frame])(nil)
	_ InputHandler[Frame] = (*PoolDecodeStage[Frame, Frame])(nil)
	_ InputHandler[Frame] = (*QueueInput[Frame])(nil)
)

// countingObserver tallies observer events.
type countingObserver struct {
	produced atomic.Uint64
	decoded  atomic.Uint64
	rendered atomic.Uint64

	mu      sync.Mutex
	dropped map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{dropped: map[string]int{}}
}

func (o *countingObserver) FrameProduced()             { o.produced.Add(1) }
func (o *countingObserver) FrameDecoded(time.Duration) { o.decoded.Add(1) }
func (o *countingObserver) FrameRendered()             { o.rendered.Add(1) }

func (o *countingObserver) FrameDropped(stage string) {
	o.mu.Lock()
	o.dropped[stage]++
	o.mu.Unlock()
}

// recordingSink keeps every rendered item in order.
type recordingSink[T any] struct {
	mu    sync.Mutex
	items []T
}

func (s *recordingSink[T]) Render(item T) {
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
}

func (s *recordingSink[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.items...)
}

func frames(values ...uint8) []Frame {
	out := make([]Frame, len(values))
	for i, v := range values {
		out[i] = Frame{Data: v}
	}
	return out
}

func fill(t *testing.T, q *queue.BoundedQueue[Frame], items []Frame) {
	t.Helper()
	for _, f := range items {
		require.True(t, q.WriteBlocking(f))
	}
}

func readAll(q *queue.BoundedQueue[Frame]) []Frame {
	var out []Frame
	for {
		f, ok := q.ReadNonBlocking()
		if !ok {
			return out
		}
		out = append(out, f)
	}
}
