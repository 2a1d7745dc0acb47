package proflite

import (
	"encoding/binary"
	"runtime"

	"github.com/google/uuid"

	"github.com/profiling-lite/profiling-lite-go/internal/host"
	"github.com/profiling-lite/profiling-lite-go/internal/intern"
	"github.com/profiling-lite/profiling-lite-go/internal/profiler"
)

// Location is a static source location handle. Create one per
// instrumentation site, typically as a package-level var; the capture
// writer emits its definition the first time a zone references it.
type Location struct {
	id uint64
}

// NewLocation registers a static location named name, with the
// function, file, and line taken from the caller.
func NewLocation(name string) *Location {
	l := intern.Location{Name: name, Function: name}
	if pc, file, line, ok := runtime.Caller(1); ok {
		l.File = file
		l.Line = uint32(line)
		if fn := runtime.FuncForPC(pc); fn != nil {
			l.Function = fn.Name()
		}
	}
	return &Location{id: intern.RegisterLocation(l)}
}

// StaticString is a static name handle for zone parameters and
// categories, typically a package-level var.
type StaticString struct {
	id uint64
}

// NewStaticString registers a static string.
func NewStaticString(s string) *StaticString {
	return &StaticString{id: intern.RegisterString(s)}
}

// NewFlowID returns a fresh process-unique flow identifier for linking
// zones across threads.
func NewFlowID() uint64 {
	id := uuid.New()
	return binary.LittleEndian.Uint64(id[:8])
}

// Zone is a convenience wrapper pairing a zone start with its end:
//
//	defer proflite.Begin(loc).End()
//
// The methods attach attributes to the running zone. A Zone must not be
// used after End.
type Zone struct {
	corr uint64
}

// Begin opens a zone at loc on the current thread, stamped with the
// current time.
func Begin(loc *Location) *Zone {
	z := &Zone{corr: profiler.NextCorrelator()}
	profiler.Get().EmitZoneStart(z.corr, host.ThreadID(), host.Now(), loc.id)
	return z
}

// End closes the zone.
func (z *Zone) End() {
	profiler.Get().EmitZoneEnd(z.corr, host.Now())
}

// SetDynamicName overrides the zone's display name.
func (z *Zone) SetDynamicName(name string) {
	profiler.Get().EmitZoneDynamicName(z.corr, name)
}

// SetParamBool attaches a boolean key/value to the zone.
func (z *Zone) SetParamBool(name *StaticString, v bool) {
	profiler.Get().EmitZoneParamBool(z.corr, name.id, v)
}

// SetParamInt attaches a signed integer key/value to the zone.
func (z *Zone) SetParamInt(name *StaticString, v int64) {
	profiler.Get().EmitZoneParamInt(z.corr, name.id, v)
}

// SetParamUint attaches an unsigned integer key/value to the zone.
func (z *Zone) SetParamUint(name *StaticString, v uint64) {
	profiler.Get().EmitZoneParamUint(z.corr, name.id, v)
}

// SetParamDouble attaches a float key/value to the zone.
func (z *Zone) SetParamDouble(name *StaticString, v float64) {
	profiler.Get().EmitZoneParamDouble(z.corr, name.id, v)
}

// SetParamString attaches a string key/value to the zone.
func (z *Zone) SetParamString(name *StaticString, v string) {
	profiler.Get().EmitZoneParamString(z.corr, name.id, v)
}

// AddFlow links the zone into a cross-thread flow.
func (z *Zone) AddFlow(flowID uint64) {
	profiler.Get().EmitZoneFlow(z.corr, flowID)
}

// TerminateFlow links the zone as the final zone of a flow.
func (z *Zone) TerminateFlow(flowID uint64) {
	profiler.Get().EmitZoneFlowTerminate(z.corr, flowID)
}

// SetCategory tags the zone with a category.
func (z *Zone) SetCategory(name *StaticString) {
	profiler.Get().EmitZoneCategory(z.corr, name.id)
}
