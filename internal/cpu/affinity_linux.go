//go:build linux

package cpu

import "golang.org/x/sys/unix"

// pinToCore restricts the current OS thread to a single core.
// Must be called after runtime.LockOSThread().
func pinToCore(core int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(core)

	return unix.SchedSetaffinity(0, &mask) // 0 = current thread
}
