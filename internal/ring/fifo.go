package ring

const defaultFIFOCapacity = 16

// FIFO is an unbounded first-in first-out queue backed by a ring that
// doubles when it runs out of room. Push never fails.
type FIFO[T any] struct {
	buf  []T
	mask int
	head int
	n    int
}

// NewFIFO creates an empty FIFO sized for at least hint elements.
func NewFIFO[T any](hint int) *FIFO[T] {
	if hint <= 0 {
		hint = defaultFIFOCapacity
	}
	size := nextPowerOfTwo(hint)
	return &FIFO[T]{buf: make([]T, size), mask: size - 1}
}

// Push appends v, growing the backing ring when needed.
func (q *FIFO[T]) Push(v T) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)&q.mask] = v
	q.n++
}

// Pop removes the oldest element. It returns false when the queue is empty.
func (q *FIFO[T]) Pop() (T, bool) {
	var zero T
	if q.n == 0 {
		return zero, false
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) & q.mask
	q.n--
	return v, true
}

func (q *FIFO[T]) Len() int { return q.n }

// Clear drops every element and returns how many were dropped.
func (q *FIFO[T]) Clear() int {
	n := q.n
	for q.n > 0 {
		q.Pop()
	}
	return n
}

// grow doubles the ring and unwraps the live elements to the front.
func (q *FIFO[T]) grow() {
	next := make([]T, len(q.buf)<<1)
	for i := 0; i < q.n; i++ {
		next[i] = q.buf[(q.head+i)&q.mask]
	}
	q.buf = next
	q.mask = len(next) - 1
	q.head = 0
}

// nextPowerOfTwo returns the next power of 2 >= n
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	if n&(n-1) == 0 {
		return n
	}

	power := 1
	for power < n {
		power *= 2
	}
	return power
}
