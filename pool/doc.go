// Package pool provides WorkerPool, a fixed-size pool of long-lived workers
// fed by a bounded internal queue with an unbounded overflow queue.
//
// # Basic Usage
//
//	p := pool.NewFuncPool(pool.WithWorkerCount(4), pool.WithQueueCapacity(4))
//	for i := 0; i < 100; i++ {
//	    p.Enqueue(func() { work(i) })
//	}
//	p.Stop() // waits for every enqueued task
//
// Typed pools hand each task value to a single executor function:
//
//	p := pool.New(func(f Frame) { out.WriteBlocking(decode(f)) }, pool.WithWorkerCount(4))
//
// # Submission
//
// Enqueue never blocks and never fails. When the internal queue is full the
// task goes to the overflow queue. Each worker that takes a task moves as
// many overflow tasks as fit back into the internal queue before it releases
// the lock, so overflow drains eagerly while the per-wakeup batch stays
// bounded. Memory grows with the overflow queue under sustained overload.
//
// # Shutdown
//
// Stop waits for workers to drain the internal queue and exit. What happens
// to the overflow queue is set with WithStopPolicy:
//
//   - DrainOverflow (default): every task enqueued before Stop runs
//   - DropOverflow: tasks still in the overflow queue at Stop are discarded
//
// Tasks enqueued after Stop are discarded. Stop is idempotent.
//
// # Configuration Options
//
//   - WithWorkerCount(n): Set number of workers (default: GOMAXPROCS)
//   - WithQueueCapacity(n): Bound the internal queue (default: worker count)
//   - WithStopPolicy(p): Overflow handling at Stop
//   - WithRateLimit(tasksPerSecond, burst): Throttle task starts
//   - WithPinnedWorkers(true): Dedicated, core-pinned OS threads
//   - WithBeforeTaskStart / WithOnTaskEnd: Per-task hooks
//   - WithLogger(l): zap logger for lifecycle messages
//
// # Error Handling
//
// The pool has no result or error channel. Tasks are fire and forget, and a
// task that panics is a defect in the task, not something the pool recovers.
package pool
