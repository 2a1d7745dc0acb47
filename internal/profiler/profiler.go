// Package profiler owns the process-wide capture state: the ring
// buffer, the capture sink, the writer goroutine, and the crash hook.
// The public proflite package is a thin facade over it.
package profiler

import (
	"bufio"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/profiling-lite/profiling-lite-go/internal/ring"
	"github.com/profiling-lite/profiling-lite-go/internal/wire"
	"github.com/profiling-lite/profiling-lite-go/internal/writer"
)

const (
	defaultCapturePath = "capture.bin-trace"

	ENV_CAPTURE_PATH = "PROFLITE_CAPTURE_PATH"
	ENV_BUFFER_SIZE  = "PROFLITE_BUFFER_SIZE"
)

// Config carries the capture settings fixed at start.
type Config struct {
	// CapturePath is the capture file, created in binary mode and
	// truncated if it exists.
	CapturePath string
	// BufferSize is the ring arena size in bytes.
	BufferSize int
	// Logger receives lifecycle and failure events. Producers never
	// log on the hot path.
	Logger zerolog.Logger
	// CrashHandler controls whether fatal signals trigger a
	// best-effort drain before the process dies.
	CrashHandler bool
}

// MakeDefaultConfig returns the built-in defaults, overridden by the
// PROFLITE_* environment variables where set.
func MakeDefaultConfig() Config {
	cfg := Config{
		CapturePath:  defaultCapturePath,
		BufferSize:   ring.DefaultSize,
		Logger:       zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel),
		CrashHandler: true,
	}
	if v := os.Getenv(ENV_CAPTURE_PATH); v != "" {
		cfg.CapturePath = v
	}
	if v := os.Getenv(ENV_BUFFER_SIZE); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BufferSize = n
		}
	}
	return cfg
}

// Profiler is one capture in progress.
type Profiler struct {
	cfg Config
	// fingerprint identifies this capture in logs.
	fingerprint uuid.UUID
	log         zerolog.Logger

	ring *ring.Buffer
	out  *os.File
	bw   *bufio.Writer

	shutdown atomic.Bool
	g        *errgroup.Group

	crashCh crashChannel
}

// The singleton manipulated by Get/Start/Stop.
var (
	mu     sync.Mutex
	active *Profiler
)

// Get returns the active profiler, starting one with the default
// configuration on first use. A sink open failure at lazy start is
// fatal: emission helpers have no error path.
func Get() *Profiler {
	mu.Lock()
	defer mu.Unlock()
	if active == nil {
		cfg := MakeDefaultConfig()
		p, err := start(cfg)
		if err != nil {
			cfg.Logger.Fatal().Err(err).Msg("failed to start capture")
		}
		active = p
	}
	return active
}

// Start begins a capture with an explicit configuration, replacing any
// capture already running.
func Start(cfg Config) (*Profiler, error) {
	mu.Lock()
	defer mu.Unlock()
	if active != nil {
		active.stop()
		active = nil
	}
	p, err := start(cfg)
	if err != nil {
		return nil, err
	}
	active = p
	return p, nil
}

// Stop ends the active capture: it requests shutdown, waits for the
// writer to drain the ring, and closes the sink. It is a no-op when no
// capture is running.
func Stop() {
	mu.Lock()
	p := active
	active = nil
	mu.Unlock()
	if p != nil {
		p.stop()
	}
}

func start(cfg Config) (*Profiler, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = ring.DefaultSize
	}
	f, err := os.Create(cfg.CapturePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture sink %s", cfg.CapturePath)
	}
	p := &Profiler{
		cfg:         cfg,
		fingerprint: uuid.New(),
		log:         cfg.Logger,
		ring:        ring.New(cfg.BufferSize),
		out:         f,
	}
	p.bw = bufio.NewWriter(f)

	// Init goes straight to the sink, like the interned metadata the
	// writer emits later. Writing it before the writer starts makes it
	// the first packet of the capture even when producers beat the
	// writer to the ring.
	var initBuf [wire.SizeInit]byte
	wire.PutInit(initBuf[:], wire.Version)
	initBuf[0] = byte(wire.TagInit)
	if _, err := p.bw.Write(initBuf[:]); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "write capture header")
	}

	if cfg.CrashHandler {
		p.installCrashHandler()
	}

	w := writer.New(p.ring, p.bw, p.log, &p.shutdown)
	p.g = &errgroup.Group{}
	p.g.Go(w.Run)

	p.log.Info().
		Stringer("capture", p.fingerprint).
		Str("path", cfg.CapturePath).
		Int("buffer_size", cfg.BufferSize).
		Msg("capture started")
	return p, nil
}

func (p *Profiler) stop() {
	p.removeCrashHandler()
	p.shutdown.Store(true)
	if err := p.g.Wait(); err != nil {
		p.log.Error().Err(err).Msg("capture writer failed")
	}
	if err := p.bw.Flush(); err != nil {
		p.log.Error().Err(err).Msg("failed to flush capture sink")
	}
	if err := p.out.Close(); err != nil {
		p.log.Error().Err(err).Msg("failed to close capture sink")
	}
	p.log.Info().Stringer("capture", p.fingerprint).Msg("capture stopped")
}

var corrSeq atomic.Uint64

// NextCorrelator returns a process-unique zone correlator.
func NextCorrelator() uint64 {
	return corrSeq.Add(1)
}
