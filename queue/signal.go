package queue

// broadcaster wakes every goroutine waiting on a condition. It works like
// sync.Cond but its wait channel can be combined with a timer in a select.
// All methods must be called with the owning queue's mutex held.
type broadcaster struct {
	ch      chan struct{}
	waiters int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{ch: make(chan struct{})}
}

// enter registers a waiter and returns the channel that is closed on the
// next broadcast.
func (b *broadcaster) enter() <-chan struct{} {
	b.waiters++
	return b.ch
}

// leave unregisters a waiter that has woken up or given up.
func (b *broadcaster) leave() {
	b.waiters--
}

// broadcast wakes all current waiters. It is a no-op when nobody waits.
func (b *broadcaster) broadcast() {
	if b.waiters == 0 {
		return
	}
	close(b.ch)
	b.ch = make(chan struct{})
}
