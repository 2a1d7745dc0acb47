package profiler

import (
	"github.com/profiling-lite/profiling-lite-go/internal/wire"
)

// The emit methods are the producer hot path: build the packet in a
// stack buffer, reserve, publish. They never block, never allocate,
// and never fail; a producer that laps the writer silently overwrites
// old packets.

func (p *Profiler) EmitZoneStart(corr, tid, ts, locID uint64) {
	var b [wire.SizeZoneStart]byte
	b[0] = byte(wire.TagZoneStart)
	wire.PutZoneStart(b[:], corr, tid, ts, locID)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}

func (p *Profiler) EmitZoneEnd(corr, ts uint64) {
	var b [wire.SizeZoneEnd]byte
	b[0] = byte(wire.TagZoneEnd)
	wire.PutZoneEnd(b[:], corr, ts)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}

func (p *Profiler) EmitZoneDynamicName(corr uint64, name string) {
	name = wire.TruncatePayload(name)
	n := wire.ZoneDynamicNameSize(len(name))
	var b [wire.MaxPacketSize]byte
	b[0] = byte(wire.TagZoneDynamicName)
	wire.PutZoneDynamicName(b[:n], corr, name)
	p.ring.Publish(p.ring.Reserve(n), b[:n])
}

func (p *Profiler) EmitZoneParamBool(corr, nameID uint64, v bool) {
	var b [wire.SizeZoneParamBool]byte
	b[0] = byte(wire.TagZoneParamBool)
	wire.PutZoneParamBool(b[:], corr, nameID, v)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}

func (p *Profiler) EmitZoneParamInt(corr, nameID uint64, v int64) {
	var b [wire.SizeZoneParamInt]byte
	b[0] = byte(wire.TagZoneParamInt)
	wire.PutZoneParamInt(b[:], corr, nameID, v)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}

func (p *Profiler) EmitZoneParamUint(corr, nameID, v uint64) {
	var b [wire.SizeZoneParamUint]byte
	b[0] = byte(wire.TagZoneParamUint)
	wire.PutZoneParamUint(b[:], corr, nameID, v)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}

func (p *Profiler) EmitZoneParamDouble(corr, nameID uint64, v float64) {
	var b [wire.SizeZoneParamDouble]byte
	b[0] = byte(wire.TagZoneParamDouble)
	wire.PutZoneParamDouble(b[:], corr, nameID, v)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}

func (p *Profiler) EmitZoneParamString(corr, nameID uint64, v string) {
	v = wire.TruncatePayload(v)
	n := wire.ZoneParamStringSize(len(v))
	var b [wire.MaxPacketSize]byte
	b[0] = byte(wire.TagZoneParamString)
	wire.PutZoneParamString(b[:n], corr, nameID, v)
	p.ring.Publish(p.ring.Reserve(n), b[:n])
}

func (p *Profiler) EmitZoneFlow(corr, flowID uint64) {
	var b [wire.SizeZoneFlow]byte
	b[0] = byte(wire.TagZoneFlow)
	wire.PutZoneFlow(b[:], corr, flowID)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}

func (p *Profiler) EmitZoneFlowTerminate(corr, flowID uint64) {
	var b [wire.SizeZoneFlowTerminate]byte
	b[0] = byte(wire.TagZoneFlowTerminate)
	wire.PutZoneFlow(b[:], corr, flowID)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}

func (p *Profiler) EmitZoneCategory(corr, nameID uint64) {
	var b [wire.SizeZoneCategory]byte
	b[0] = byte(wire.TagZoneCategory)
	wire.PutZoneCategory(b[:], corr, nameID)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}

func (p *Profiler) EmitThreadName(tid uint64, name string) {
	name = wire.TruncatePayload(name)
	n := wire.ThreadNameSize(len(name))
	var b [wire.MaxPacketSize]byte
	b[0] = byte(wire.TagThreadName)
	wire.PutThreadName(b[:n], tid, name)
	p.ring.Publish(p.ring.Reserve(n), b[:n])
}

func (p *Profiler) EmitStack(begin, end uint64, name string) {
	name = wire.TruncatePayload(name)
	n := wire.StackSize(len(name))
	var b [wire.MaxPacketSize]byte
	b[0] = byte(wire.TagStack)
	wire.PutStack(b[:n], begin, end, name)
	p.ring.Publish(p.ring.Reserve(n), b[:n])
}

func (p *Profiler) EmitCounterTrack(tid uint64, name string) {
	name = wire.TruncatePayload(name)
	n := wire.CounterTrackSize(len(name))
	var b [wire.MaxPacketSize]byte
	b[0] = byte(wire.TagCounterTrack)
	wire.PutCounterTrack(b[:n], tid, name)
	p.ring.Publish(p.ring.Reserve(n), b[:n])
}

func (p *Profiler) EmitCounterValueInt(tid, ts uint64, v int64) {
	var b [wire.SizeCounterValueInt]byte
	b[0] = byte(wire.TagCounterValueInt)
	wire.PutCounterValueInt(b[:], tid, ts, v)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}

func (p *Profiler) EmitCounterValueDouble(tid, ts uint64, v float64) {
	var b [wire.SizeCounterValueDouble]byte
	b[0] = byte(wire.TagCounterValueDouble)
	wire.PutCounterValueDouble(b[:], tid, ts, v)
	p.ring.Publish(p.ring.Reserve(len(b)), b[:])
}
