package proflite

import (
	"github.com/profiling-lite/profiling-lite-go/internal/profiler"
)

// The Emit* functions are fire-and-forget: they never block and never
// fail. If producers outpace the writer, old packets are silently
// overwritten; tracing must not alter program semantics.
//
// The correlator pairs a zone's start with its attributes and end. Any
// scheme works as long as every mid-zone packet carries the same
// correlator as its start; the Zone helper draws correlators from a
// process-wide counter.

// SetThreadName attaches a human-readable label to a thread id.
func SetThreadName(tid uint64, name string) {
	profiler.Get().EmitThreadName(tid, name)
}

// DefineStack declares [begin, end) as a named stack address range.
func DefineStack(begin, end uint64, name string) {
	profiler.Get().EmitStack(begin, end, name)
}

// DefineCounterTrack declares a named counter stream on a thread id.
func DefineCounterTrack(tid uint64, name string) {
	profiler.Get().EmitCounterTrack(tid, name)
}

// EmitZoneStart opens a zone at the given location.
func EmitZoneStart(corr, tid, ts uint64, loc *Location) {
	profiler.Get().EmitZoneStart(corr, tid, ts, loc.id)
}

// EmitZoneEnd closes the zone opened with the same correlator.
func EmitZoneEnd(corr, ts uint64) {
	profiler.Get().EmitZoneEnd(corr, ts)
}

// EmitZoneDynamicName overrides the enclosing zone's display name.
func EmitZoneDynamicName(corr uint64, name string) {
	profiler.Get().EmitZoneDynamicName(corr, name)
}

// EmitZoneParamBool attaches a boolean key/value to the enclosing zone.
func EmitZoneParamBool(corr uint64, name *StaticString, v bool) {
	profiler.Get().EmitZoneParamBool(corr, name.id, v)
}

// EmitZoneParamInt attaches a signed integer key/value to the enclosing
// zone.
func EmitZoneParamInt(corr uint64, name *StaticString, v int64) {
	profiler.Get().EmitZoneParamInt(corr, name.id, v)
}

// EmitZoneParamUint attaches an unsigned integer key/value to the
// enclosing zone.
func EmitZoneParamUint(corr uint64, name *StaticString, v uint64) {
	profiler.Get().EmitZoneParamUint(corr, name.id, v)
}

// EmitZoneParamDouble attaches a float key/value to the enclosing zone.
func EmitZoneParamDouble(corr uint64, name *StaticString, v float64) {
	profiler.Get().EmitZoneParamDouble(corr, name.id, v)
}

// EmitZoneParamString attaches a string key/value to the enclosing
// zone.
func EmitZoneParamString(corr uint64, name *StaticString, v string) {
	profiler.Get().EmitZoneParamString(corr, name.id, v)
}

// EmitZoneFlow links the enclosing zone into a cross-thread flow.
func EmitZoneFlow(corr, flowID uint64) {
	profiler.Get().EmitZoneFlow(corr, flowID)
}

// EmitZoneFlowTerminate links the enclosing zone as the final zone of a
// flow.
func EmitZoneFlowTerminate(corr, flowID uint64) {
	profiler.Get().EmitZoneFlowTerminate(corr, flowID)
}

// EmitZoneCategory tags the enclosing zone with a category.
func EmitZoneCategory(corr uint64, name *StaticString) {
	profiler.Get().EmitZoneCategory(corr, name.id)
}

// EmitCounterInt records an integer sample on a counter track.
func EmitCounterInt(tid, ts uint64, v int64) {
	profiler.Get().EmitCounterValueInt(tid, ts, v)
}

// EmitCounterDouble records a float sample on a counter track.
func EmitCounterDouble(tid, ts uint64, v float64) {
	profiler.Get().EmitCounterValueDouble(tid, ts, v)
}
