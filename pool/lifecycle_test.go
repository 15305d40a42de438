package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_Stop(t *testing.T) {
	t.Run("runs queued tasks before returning", func(t *testing.T) {
		p := NewFuncPool(WithWorkerCount(3))

		var counter atomic.Int32
		p.Enqueue(testTask(&counter, 50*time.Millisecond))
		p.Enqueue(testTask(&counter, 50*time.Millisecond))
		p.Stop()

		assert.Equal(t, int32(2), counter.Load())
	})

	t.Run("idle pool", func(t *testing.T) {
		p := NewFuncPool(WithWorkerCount(2))

		done := make(chan struct{})
		go func() {
			p.Stop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Stop hung on an idle pool")
		}
		assert.False(t, p.Stats().Running)
	})

	t.Run("twice", func(t *testing.T) {
		p := NewFuncPool(WithWorkerCount(2))
		p.Stop()
		p.Stop()
		assert.False(t, p.Stats().Running)
	})

	t.Run("concurrently", func(t *testing.T) {
		p := NewFuncPool(WithWorkerCount(4))
		var counter atomic.Int32
		for range 8 {
			p.Enqueue(testTask(&counter, 10*time.Millisecond))
		}

		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Stop()
				// Every caller returns only after the workers are gone.
				assert.Equal(t, int32(8), counter.Load())
			}()
		}
		wg.Wait()
	})
}

func TestWorkerPool_StopPolicy(t *testing.T) {
	// One worker held on a gate, capacity 2: after 1 running + 2 queued,
	// the remaining tasks sit in overflow when Stop is called.
	setup := func(policy StopPolicy) (*WorkerPool[func()], *atomic.Int32, chan struct{}) {
		p := NewFuncPool(WithWorkerCount(1), WithQueueCapacity(2), WithStopPolicy(policy))
		gate := make(chan struct{})
		started := make(chan struct{})
		var counter atomic.Int32

		p.Enqueue(func() {
			close(started)
			<-gate
			counter.Add(1)
		})
		<-started
		for range 5 {
			p.Enqueue(func() { counter.Add(1) })
		}

		stats := p.Stats()
		require.Equal(t, 2, stats.Queued)
		require.Equal(t, 3, stats.Overflow)
		return p, &counter, gate
	}

	t.Run("drain overflow runs everything", func(t *testing.T) {
		p, counter, gate := setup(DrainOverflow)

		stopped := make(chan struct{})
		go func() {
			p.Stop()
			close(stopped)
		}()
		time.Sleep(20 * time.Millisecond)
		close(gate)
		<-stopped

		assert.Equal(t, int32(6), counter.Load())
		stats := p.Stats()
		assert.Equal(t, uint64(6), stats.Executed)
		assert.Zero(t, stats.Discarded)
		assert.Zero(t, stats.Overflow)
	})

	t.Run("drop overflow discards waiting tasks", func(t *testing.T) {
		p, counter, gate := setup(DropOverflow)

		stopped := make(chan struct{})
		go func() {
			p.Stop()
			close(stopped)
		}()
		require.Eventually(t, func() bool { return !p.Stats().Running },
			time.Second, 5*time.Millisecond)
		close(gate)
		<-stopped

		assert.Equal(t, int32(3), counter.Load(), "running task plus the two queued ones")
		stats := p.Stats()
		assert.Equal(t, uint64(3), stats.Discarded)
		assert.Zero(t, stats.Overflow)
	})
}

func TestWorkerPool_EnqueueAfterStop(t *testing.T) {
	p := NewFuncPool(WithWorkerCount(1))
	p.Stop()

	var ran atomic.Bool
	p.Enqueue(func() { ran.Store(true) })

	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load())
	assert.Equal(t, uint64(1), p.Stats().Discarded)
}
