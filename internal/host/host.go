// Package host sources the clock and the thread identity that stamp
// emitted packets.
package host

import "time"

var processStart = time.Now()

// Now returns a monotonic timestamp in nanoseconds since process
// start.
func Now() uint64 {
	return uint64(time.Since(processStart))
}
