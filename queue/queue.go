package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/utkarsh5026/streamsim/internal/ring"
)

var (
	// ErrTimeout is returned when a blocking operation gave up after the
	// configured wait timeout.
	ErrTimeout = errors.New("queue: wait timed out")
)

// DefaultWaitTimeout bounds blocking reads and writes unless overridden
// with WithWaitTimeout.
const DefaultWaitTimeout = 2 * time.Second

// Option configures a BoundedQueue.
type Option func(*config)

type config struct {
	waitTimeout time.Duration
}

// WithWaitTimeout sets how long blocking operations wait for room or data.
// A timeout of 0 waits indefinitely. Negative values are ignored.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.waitTimeout = d
		}
	}
}

// BoundedQueue is a fixed-capacity circular FIFO guarded by a single mutex
// with "not full" and "not empty" conditions. Every successful write wakes
// blocked readers and every successful read wakes blocked writers.
//
// Items written by one goroutine are read in the order they were written.
// Items from concurrent writers are interleaved in lock acquisition order.
type BoundedQueue[T any] struct {
	mu       sync.Mutex
	ring     *ring.Fixed[T]
	notFull  *broadcaster
	notEmpty *broadcaster
	timeout  time.Duration
}

// New creates a queue holding at most capacity items.
// It panics if capacity is not positive.
func New[T any](capacity int, opts ...Option) *BoundedQueue[T] {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}

	cfg := &config{waitTimeout: DefaultWaitTimeout}
	for _, opt := range opts {
		opt(cfg)
	}

	return &BoundedQueue[T]{
		ring:     ring.NewFixed[T](capacity),
		notFull:  newBroadcaster(),
		notEmpty: newBroadcaster(),
		timeout:  cfg.waitTimeout,
	}
}

// WriteBlocking inserts item at the tail, waiting for a free slot for at
// most the wait timeout. It returns false if the queue was still full when
// the timeout elapsed, in which case nothing was written.
func (q *BoundedQueue[T]) WriteBlocking(item T) bool {
	return q.write(context.Background(), item) == nil
}

// WriteContext is WriteBlocking that also gives up when ctx is done.
// It returns ErrTimeout or the context error when nothing was written.
func (q *BoundedQueue[T]) WriteContext(ctx context.Context, item T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.write(ctx, item)
}

// TryWrite inserts item only if a slot is free right now.
func (q *BoundedQueue[T]) TryWrite(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.ring.Push(item) {
		return false
	}
	q.notEmpty.broadcast()
	return true
}

// ReadBlocking removes the oldest item, waiting for one to arrive for at
// most the wait timeout. It returns false if the queue was still empty when
// the timeout elapsed.
func (q *BoundedQueue[T]) ReadBlocking() (T, bool) {
	item, err := q.read(context.Background())
	return item, err == nil
}

// ReadContext is ReadBlocking that also gives up when ctx is done.
func (q *BoundedQueue[T]) ReadContext(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	return q.read(ctx)
}

// ReadNonBlocking removes the oldest item if there is one. It never waits
// and leaves the queue untouched when it is empty.
func (q *BoundedQueue[T]) ReadNonBlocking() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	item, ok := q.ring.Pop()
	if ok {
		q.notFull.broadcast()
	}
	return item, ok
}

func (q *BoundedQueue[T]) write(ctx context.Context, item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.await(ctx, q.notFull, func() bool { return !q.ring.Full() }); err != nil {
		return err
	}

	q.ring.Push(item)
	q.notEmpty.broadcast()
	return nil
}

func (q *BoundedQueue[T]) read(ctx context.Context) (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.await(ctx, q.notEmpty, func() bool { return !q.ring.Empty() }); err != nil {
		var zero T
		return zero, err
	}

	item, _ := q.ring.Pop()
	q.notFull.broadcast()
	return item, nil
}

// await blocks until ready reports true, the wait timeout elapses or ctx is
// done. It must be called with q.mu held and returns with q.mu held.
func (q *BoundedQueue[T]) await(ctx context.Context, cond *broadcaster, ready func() bool) error {
	if ready() {
		return nil
	}

	var expired <-chan time.Time
	if q.timeout > 0 {
		timer := time.NewTimer(q.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for !ready() {
		wake := cond.enter()
		q.mu.Unlock()

		var err error
		select {
		case <-wake:
		case <-expired:
			err = ErrTimeout
		case <-ctx.Done():
			err = ctx.Err()
		}

		q.mu.Lock()
		cond.leave()

		if err != nil {
			if ready() {
				return nil
			}
			return err
		}
	}
	return nil
}

// Count returns the number of queued items.
func (q *BoundedQueue[T]) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Len()
}

// IsFull reports whether no slot is free.
func (q *BoundedQueue[T]) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Full()
}

// IsEmpty reports whether no item is queued.
func (q *BoundedQueue[T]) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Empty()
}

// Cap returns the fixed capacity.
func (q *BoundedQueue[T]) Cap() int {
	return q.ring.Cap()
}

// Head returns the index of the oldest unread slot.
func (q *BoundedQueue[T]) Head() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Head()
}

// Tail returns the index the next write goes to.
func (q *BoundedQueue[T]) Tail() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ring.Tail()
}

// WaitTimeout returns the bound applied to blocking operations.
func (q *BoundedQueue[T]) WaitTimeout() time.Duration {
	return q.timeout
}
