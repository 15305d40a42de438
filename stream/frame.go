package stream

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/utkarsh5026/streamsim/queue"
)

// Frame is a single unit of stream payload. The simulator carries one byte.
type Frame struct {
	Data uint8
}

// Decoder transforms a raw item into a decoded one. Implementations must be
// safe for concurrent use and must not fail.
type Decoder[In, Out any] interface {
	Decode(in In) Out
}

// DecoderFunc adapts a plain function to Decoder.
type DecoderFunc[In, Out any] func(In) Out

// Decode calls f(in).
func (f DecoderFunc[In, Out]) Decode(in In) Out { return f(in) }

// DefaultDecodeLatency is the simulated cost of decoding one frame.
const DefaultDecodeLatency = 4 * time.Millisecond

// HalvingDecoder is the simulator's decoder: after sleeping for Latency it
// returns a frame whose value is half the input's.
type HalvingDecoder struct {
	Latency time.Duration
}

// Decode implements Decoder.
func (d HalvingDecoder) Decode(f Frame) Frame {
	if d.Latency > 0 {
		time.Sleep(d.Latency)
	}
	return Frame{Data: f.Data / 2}
}

// Sink consumes decoded items one at a time on the render goroutine.
type Sink[T any] interface {
	Render(item T)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc[T any] func(T)

// Render calls f(item).
func (f SinkFunc[T]) Render(item T) { f(item) }

// WriterSink prints every item on its own line.
type WriterSink[T any] struct {
	mu     sync.Mutex
	w      io.Writer
	format func(T) string
}

// NewWriterSink returns a sink writing to w. A nil format prints items with
// fmt.Sprint.
func NewWriterSink[T any](w io.Writer, format func(T) string) *WriterSink[T] {
	if w == nil {
		panic("stream: nil writer")
	}
	if format == nil {
		format = func(v T) string { return fmt.Sprint(v) }
	}
	return &WriterSink[T]{w: w, format: format}
}

// Render implements Sink. Write errors are ignored.
func (s *WriterSink[T]) Render(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.w, s.format(item))
}

// InputHandler receives items from an external transport. OnInputData must
// return quickly; false means the item was not accepted and the caller may
// retry or drop it.
type InputHandler[T any] interface {
	OnInputData(item T) bool
}

// QueueInput hands every item to a bounded queue with a blocking write.
type QueueInput[T any] struct {
	q *queue.BoundedQueue[T]
}

// NewQueueInput returns an InputHandler writing into q. It panics if q is nil.
func NewQueueInput[T any](q *queue.BoundedQueue[T]) *QueueInput[T] {
	if q == nil {
		panic("stream: QueueInput needs a queue")
	}
	return &QueueInput[T]{q: q}
}

// OnInputData writes item, waiting at most the queue's wait timeout.
func (in *QueueInput[T]) OnInputData(item T) bool {
	return in.q.WriteBlocking(item)
}
