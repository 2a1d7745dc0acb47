// Package writer contains the capture writer: the single background
// task that drains committed packets from the ring, emits interned
// metadata definitions, and streams everything to the capture sink.
package writer

import (
	"io"
	"runtime"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/profiling-lite/profiling-lite-go/internal/intern"
	"github.com/profiling-lite/profiling-lite-go/internal/ring"
	"github.com/profiling-lite/profiling-lite-go/internal/wire"
)

// shutdownDrainAttempts is how many extra drain passes the writer makes
// after shutdown is requested, to catch packets committed while it was
// going down.
const shutdownDrainAttempts = 10

type flusher interface {
	Flush() error
}

// Writer drains the ring and owns the interning state. It is the only
// goroutine that reads the ring or touches the tracker.
type Writer struct {
	ring     *ring.Buffer
	seen     *intern.Tracker
	out      io.Writer
	log      zerolog.Logger
	shutdown *atomic.Bool

	// ids that were referenced but never registered; warned about once.
	unknown map[uint64]struct{}

	// scratch buffer for definition packets written straight to the
	// sink.
	scratch [wire.MaxPacketSize]byte
}

func New(rb *ring.Buffer, out io.Writer, log zerolog.Logger, shutdown *atomic.Bool) *Writer {
	return &Writer{
		ring:     rb,
		seen:     intern.NewTracker(),
		out:      out,
		log:      log,
		shutdown: shutdown,
		unknown:  make(map[uint64]struct{}),
	}
}

// Run loops until shutdown is requested and the ring has been drained.
// A sink failure is fatal to the process: a torn capture is useless, so
// there is nothing to recover.
func (w *Writer) Run() error {
	for {
		start, end := w.ring.ReadyRange()
		if start == end {
			if w.shutdown.Load() {
				for i := 0; i < shutdownDrainAttempts; i++ {
					w.writeRange(w.ring.ReadyRange())
					runtime.Gosched()
				}
				return w.flush()
			}
			runtime.Gosched()
			continue
		}
		w.writeRange(start, end)
	}
}

// writeRange emits any missing metadata definitions for the packets in
// [start, end), writes each packet to the sink, flushes, and returns
// the bytes to the ring. Packets sit on word boundaries in the arena;
// the per-packet writes drop that padding so the file stays packed.
//
// Definitions go directly to the sink, ahead of the packet that
// references them; that keeps the output readable in a single linear
// pass.
func (w *Writer) writeRange(start, end int) {
	if start == end {
		return
	}
	data := w.ring.Range(start, end)
	for off := 0; off < len(data); {
		n := wire.PacketSize(data, off)
		if n == 0 || off+n > len(data) {
			break
		}
		p := data[off : off+n]
		switch wire.Tag(p[0]) {
		case wire.TagZoneStart:
			w.ensureLocation(wire.ZoneStartLocation(p))
		case wire.TagZoneParamBool, wire.TagZoneParamInt, wire.TagZoneParamUint,
			wire.TagZoneParamDouble, wire.TagZoneParamString:
			w.ensureString(wire.ZoneParamName(p))
		case wire.TagZoneCategory:
			w.ensureString(wire.ZoneCategoryName(p))
		}
		w.write(p)
		off += ring.PaddedSize(n)
	}
	if err := w.flush(); err != nil {
		w.log.Fatal().Err(err).Msg("capture sink flush failed")
	}
	w.ring.Release(start, end)
}

// ensureLocation emits the definition of a location id on first
// reference, preceded by the definitions of its three string
// components in the order name, function, file.
func (w *Writer) ensureLocation(id uint64) {
	if !w.seen.ShouldEmitLocation(id) {
		return
	}
	loc, ok := intern.LocationByID(id)
	if !ok {
		w.warnUnknown("location", id)
		return
	}
	w.ensureString(intern.StringID(loc.Name))
	w.ensureString(intern.StringID(loc.Function))
	w.ensureString(intern.StringID(loc.File))

	b := w.scratch[:wire.SizeLocation]
	wire.PutLocation(b, id,
		intern.StringID(loc.Name),
		intern.StringID(loc.Function),
		intern.StringID(loc.File),
		loc.Line)
	b[0] = byte(wire.TagLocation)
	w.write(b)
}

// ensureString emits the definition of a string id on first reference.
func (w *Writer) ensureString(id uint64) {
	if !w.seen.ShouldEmitString(id) {
		return
	}
	s, ok := intern.StringByID(id)
	if !ok {
		w.warnUnknown("string", id)
		return
	}
	s = wire.TruncatePayload(s)
	b := w.scratch[:wire.StaticStringSize(len(s))]
	wire.PutStaticString(b, id, s)
	b[0] = byte(wire.TagStaticString)
	w.write(b)
}

func (w *Writer) write(b []byte) {
	if _, err := w.out.Write(b); err != nil {
		w.log.Fatal().Err(errors.Wrap(err, "write capture")).Msg("capture sink write failed")
	}
}

func (w *Writer) flush() error {
	f, ok := w.out.(flusher)
	if !ok {
		return nil
	}
	return errors.Wrap(f.Flush(), "flush capture")
}

func (w *Writer) warnUnknown(kind string, id uint64) {
	if _, ok := w.unknown[id]; ok {
		return
	}
	w.unknown[id] = struct{}{}
	w.log.Warn().Str("kind", kind).Uint64("id", id).
		Msg("packet references an unregistered static id; definition skipped")
}
