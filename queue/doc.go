// Package queue provides BoundedQueue, a fixed-capacity FIFO ring buffer
// that is safe for many concurrent writers and readers.
//
// BoundedQueue is the only synchronization point shared between pipeline
// stages. Writers block while the queue is full and readers block while it
// is empty, each for at most the configured wait timeout:
//
//	q := queue.New[int](2, queue.WithWaitTimeout(time.Second))
//	q.WriteBlocking(1)
//	v, ok := q.ReadBlocking()
//
// A blocking call that times out returns false and leaves the queue
// untouched. That is a data-loss point: the caller decides whether to retry,
// drop or log.
//
// Count, IsFull and IsEmpty are consistent snapshots taken under the queue
// lock, but they can be stale as soon as they return. Do not use them to
// decide whether a following read or write will succeed.
package queue
