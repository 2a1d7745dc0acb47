//go:build !linux

package host

import "os"

// ThreadID returns the process id on platforms without a cheap
// per-thread id. All events land on a single track.
func ThreadID() uint64 {
	return uint64(os.Getpid())
}
