// Package ring holds the unsynchronized circular buffers shared by the
// bounded queue and the worker pool. Callers provide their own locking.
package ring

// Fixed is a fixed-capacity circular buffer.
//
// Writes insert at tail and reads remove from head, both advancing modulo
// the capacity. 0 <= Len() <= Cap() always holds.
type Fixed[T any] struct {
	buf   []T
	head  int
	tail  int
	count int
}

// NewFixed creates a ring that holds at most capacity elements.
// It panics if capacity is not positive.
func NewFixed[T any](capacity int) *Fixed[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Fixed[T]{buf: make([]T, capacity)}
}

// Push appends v at the tail. It returns false when the ring is full.
func (r *Fixed[T]) Push(v T) bool {
	if r.count == len(r.buf) {
		return false
	}
	r.buf[r.tail] = v
	r.tail = (r.tail + 1) % len(r.buf)
	r.count++
	return true
}

// Pop removes the oldest element. It returns false when the ring is empty.
func (r *Fixed[T]) Pop() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return v, true
}

func (r *Fixed[T]) Len() int    { return r.count }
func (r *Fixed[T]) Cap() int    { return len(r.buf) }
func (r *Fixed[T]) Full() bool  { return r.count == len(r.buf) }
func (r *Fixed[T]) Empty() bool { return r.count == 0 }
func (r *Fixed[T]) Head() int   { return r.head }
func (r *Fixed[T]) Tail() int   { return r.tail }
func (r *Fixed[T]) Free() int   { return len(r.buf) - r.count }
