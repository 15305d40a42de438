// Package cpu binds stage goroutines to dedicated OS threads.
//
// Decode and render stages run on long-lived threads. Dedicate locks the
// calling goroutine to its OS thread so the Go scheduler cannot migrate
// that loop, and optionally pins the thread to a core.
package cpu

import "runtime"

// NumCPU returns the number of logical CPUs available.
func NumCPU() int {
	return runtime.NumCPU()
}

// Dedicate locks the calling goroutine to its current OS thread. When pin is
// true the thread is also pinned to core slot%NumCPU() where the platform
// supports it. Pinning failures are ignored: an unpinned dedicated thread is
// still correct.
//
// The returned release function must be called from the same goroutine,
// typically deferred.
func Dedicate(slot int, pin bool) (release func()) {
	runtime.LockOSThread()
	if pin {
		_ = pinToCore(coreFor(slot))
	}
	return runtime.UnlockOSThread
}

func coreFor(slot int) int {
	n := NumCPU()
	if slot < 0 {
		slot = -slot
	}
	return slot % n
}
