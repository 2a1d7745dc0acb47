package wire

import (
	"encoding/binary"
	"math"
)

// The Put* builders populate everything in a reserved packet except its
// type byte, which stays TagFree until the caller commits it. The
// destination must be exactly the size reported by the matching Size
// constant or *Size function.

// TruncatePayload clamps s so the packet carrying it stays within
// MaxPacketSize. Larger payloads would overrun the ring's reservation
// slack.
func TruncatePayload(s string) string {
	if len(s) > MaxPayload {
		return s[:MaxPayload]
	}
	return s
}

func StaticStringSize(payload int) int { return SizeStaticStringHdr + payload }
func StackSize(payload int) int        { return SizeStackHdr + payload }
func ThreadNameSize(payload int) int   { return SizeThreadNameHdr + payload }
func ZoneDynamicNameSize(payload int) int {
	return SizeZoneDynamicNameHdr + payload
}
func ZoneParamStringSize(payload int) int {
	return SizeZoneParamStringHdr + payload
}
func CounterTrackSize(payload int) int { return SizeCounterTrackHdr + payload }

func PutInit(b []byte, version uint32) {
	copy(b[1:], Magic[:])
	binary.LittleEndian.PutUint32(b[5:], version)
}

func PutStaticString(b []byte, id uint64, s string) {
	binary.LittleEndian.PutUint64(b[1:], id)
	binary.LittleEndian.PutUint16(b[9:], uint16(len(s)))
	copy(b[11:], s)
}

func PutLocation(b []byte, id, nameID, functionID, fileID uint64, line uint32) {
	binary.LittleEndian.PutUint64(b[1:], id)
	binary.LittleEndian.PutUint64(b[9:], nameID)
	binary.LittleEndian.PutUint64(b[17:], functionID)
	binary.LittleEndian.PutUint64(b[25:], fileID)
	binary.LittleEndian.PutUint32(b[33:], line)
}

func PutStack(b []byte, begin, end uint64, name string) {
	binary.LittleEndian.PutUint64(b[1:], begin)
	binary.LittleEndian.PutUint64(b[9:], end)
	binary.LittleEndian.PutUint16(b[17:], uint16(len(name)))
	copy(b[19:], name)
}

func PutThreadName(b []byte, tid uint64, name string) {
	binary.LittleEndian.PutUint64(b[1:], tid)
	binary.LittleEndian.PutUint16(b[9:], uint16(len(name)))
	copy(b[11:], name)
}

func PutZoneStart(b []byte, corr, tid, ts, locID uint64) {
	binary.LittleEndian.PutUint64(b[1:], corr)
	binary.LittleEndian.PutUint64(b[9:], tid)
	binary.LittleEndian.PutUint64(b[17:], ts)
	binary.LittleEndian.PutUint64(b[25:], locID)
}

func PutZoneEnd(b []byte, corr, ts uint64) {
	binary.LittleEndian.PutUint64(b[1:], corr)
	binary.LittleEndian.PutUint64(b[9:], ts)
}

func PutZoneDynamicName(b []byte, corr uint64, name string) {
	binary.LittleEndian.PutUint64(b[1:], corr)
	binary.LittleEndian.PutUint16(b[9:], uint16(len(name)))
	copy(b[11:], name)
}

func PutZoneParamBool(b []byte, corr, nameID uint64, v bool) {
	binary.LittleEndian.PutUint64(b[1:], corr)
	binary.LittleEndian.PutUint64(b[9:], nameID)
	if v {
		b[17] = 1
	} else {
		b[17] = 0
	}
}

func PutZoneParamInt(b []byte, corr, nameID uint64, v int64) {
	binary.LittleEndian.PutUint64(b[1:], corr)
	binary.LittleEndian.PutUint64(b[9:], nameID)
	binary.LittleEndian.PutUint64(b[17:], uint64(v))
}

func PutZoneParamUint(b []byte, corr, nameID, v uint64) {
	binary.LittleEndian.PutUint64(b[1:], corr)
	binary.LittleEndian.PutUint64(b[9:], nameID)
	binary.LittleEndian.PutUint64(b[17:], v)
}

func PutZoneParamDouble(b []byte, corr, nameID uint64, v float64) {
	binary.LittleEndian.PutUint64(b[1:], corr)
	binary.LittleEndian.PutUint64(b[9:], nameID)
	binary.LittleEndian.PutUint64(b[17:], math.Float64bits(v))
}

func PutZoneParamString(b []byte, corr, nameID uint64, v string) {
	binary.LittleEndian.PutUint64(b[1:], corr)
	binary.LittleEndian.PutUint64(b[9:], nameID)
	binary.LittleEndian.PutUint16(b[17:], uint16(len(v)))
	copy(b[19:], v)
}

func PutZoneFlow(b []byte, corr, flowID uint64) {
	binary.LittleEndian.PutUint64(b[1:], corr)
	binary.LittleEndian.PutUint64(b[9:], flowID)
}

func PutZoneCategory(b []byte, corr, nameID uint64) {
	binary.LittleEndian.PutUint64(b[1:], corr)
	binary.LittleEndian.PutUint64(b[9:], nameID)
}

func PutCounterTrack(b []byte, tid uint64, name string) {
	binary.LittleEndian.PutUint64(b[1:], tid)
	binary.LittleEndian.PutUint16(b[9:], uint16(len(name)))
	copy(b[11:], name)
}

func PutCounterValueInt(b []byte, tid, ts uint64, v int64) {
	binary.LittleEndian.PutUint64(b[1:], tid)
	binary.LittleEndian.PutUint64(b[9:], ts)
	binary.LittleEndian.PutUint64(b[17:], uint64(v))
}

func PutCounterValueDouble(b []byte, tid, ts uint64, v float64) {
	binary.LittleEndian.PutUint64(b[1:], tid)
	binary.LittleEndian.PutUint64(b[9:], ts)
	binary.LittleEndian.PutUint64(b[17:], math.Float64bits(v))
}
