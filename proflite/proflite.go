// Package proflite contains a low-overhead, in-process tracing
// library. Application goroutines record zones, counters, and thread
// metadata through short non-blocking calls; a single background
// writer streams the packets to a binary capture file for offline
// viewing.
package proflite

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/profiling-lite/profiling-lite-go/internal/host"
	"github.com/profiling-lite/profiling-lite-go/internal/profiler"
)

// Option to configure the capture.
type Option interface {
	apply(*profiler.Config)
}

type optionFunc func(cfg *profiler.Config)

func (f optionFunc) apply(cfg *profiler.Config) {
	f(cfg)
}

// WithCapturePath sets the capture file path. Defaults to
// capture.bin-trace in the current working directory, or the
// PROFLITE_CAPTURE_PATH environment variable if set.
func WithCapturePath(path string) Option {
	return optionFunc(func(cfg *profiler.Config) {
		cfg.CapturePath = path
	})
}

// WithBufferSize sets the ring buffer size in bytes. Defaults to 4 MiB,
// or the PROFLITE_BUFFER_SIZE environment variable if set.
func WithBufferSize(size int) Option {
	return optionFunc(func(cfg *profiler.Config) {
		cfg.BufferSize = size
	})
}

// WithLogger sets the logger that receives lifecycle and failure
// events.
func WithLogger(log zerolog.Logger) Option {
	return optionFunc(func(cfg *profiler.Config) {
		cfg.Logger = log
	})
}

// WithoutCrashHandler disables the fatal-signal drain hook.
func WithoutCrashHandler() Option {
	return optionFunc(func(cfg *profiler.Config) {
		cfg.CrashHandler = false
	})
}

// Init starts a capture with the given options, replacing any capture
// already in progress. Calling Init is optional: the first emission
// starts a capture with the default configuration.
func Init(opts ...Option) error {
	cfg := profiler.MakeDefaultConfig()
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	if _, err := profiler.Start(cfg); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	return nil
}

// Stop ends the capture: the writer drains the ring and the capture
// file is closed. It is a no-op if no capture is running. Init() can be
// called again after Stop() to begin a new capture.
func Stop() {
	profiler.Stop()
}

// Now returns the monotonic timestamp used to stamp emitted packets,
// in nanoseconds since process start.
func Now() uint64 {
	return host.Now()
}

// CurrentThreadID returns the identity of the OS thread the calling
// goroutine runs on. Goroutines migrate between threads unless pinned
// with runtime.LockOSThread; the id is the thread at the moment of the
// call.
func CurrentThreadID() uint64 {
	return host.ThreadID()
}
