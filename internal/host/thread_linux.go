//go:build linux

package host

import "golang.org/x/sys/unix"

// ThreadID returns the id of the OS thread the calling goroutine is
// running on. Goroutines migrate between threads unless the caller
// pins itself with runtime.LockOSThread, so the id identifies the
// thread at the moment of the call.
func ThreadID() uint64 {
	return uint64(unix.Gettid())
}
