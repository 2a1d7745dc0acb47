// Package wire contains the packet catalog for the capture file
// protocol. It is a binary protocol: packets are packed little-endian
// records, self-delimited by their leading type byte. The type byte
// doubles as the publication flag inside the ring buffer; TagFree (0)
// marks bytes that are reserved but not yet published.
package wire

import "encoding/binary"

// Tag identifies a packet kind. The values are part of the on-disk
// format and must not be renumbered.
type Tag uint8

const (
	TagFree Tag = 0

	TagInit         Tag = 16
	TagStaticString Tag = 17
	TagLocation     Tag = 18

	TagStack      Tag = 19
	TagThreadName Tag = 20

	TagZoneStart         Tag = 21
	TagZoneEnd           Tag = 22
	TagZoneDynamicName   Tag = 23
	TagZoneParamBool     Tag = 24
	TagZoneParamInt      Tag = 25
	TagZoneParamUint     Tag = 26
	TagZoneParamDouble   Tag = 27
	TagZoneParamString   Tag = 28
	TagZoneFlow          Tag = 29
	TagZoneFlowTerminate Tag = 30
	TagZoneCategory      Tag = 31

	TagCounterTrack       Tag = 32
	TagCounterValueInt    Tag = 33
	TagCounterValueDouble Tag = 34
)

// Fixed sizes of each packet kind, in bytes, including the leading type
// byte. Dynamic kinds carry an additional payload of the length stored
// in the u16 that ends their fixed header.
const (
	SizeInit               = 1 + 4 + 4
	SizeStaticStringHdr    = 1 + 8 + 2
	SizeLocation           = 1 + 8 + 8 + 8 + 8 + 4
	SizeStackHdr           = 1 + 8 + 8 + 2
	SizeThreadNameHdr      = 1 + 8 + 2
	SizeZoneStart          = 1 + 8 + 8 + 8 + 8
	SizeZoneEnd            = 1 + 8 + 8
	SizeZoneDynamicNameHdr = 1 + 8 + 2
	SizeZoneParamBool      = 1 + 8 + 8 + 1
	SizeZoneParamInt       = 1 + 8 + 8 + 8
	SizeZoneParamUint      = 1 + 8 + 8 + 8
	SizeZoneParamDouble    = 1 + 8 + 8 + 8
	SizeZoneParamStringHdr = 1 + 8 + 8 + 2
	SizeZoneFlow           = 1 + 8 + 8
	SizeZoneFlowTerminate  = 1 + 8 + 8
	SizeZoneCategory       = 1 + 8 + 8
	SizeCounterTrackHdr    = 1 + 8 + 2
	SizeCounterValueInt    = 1 + 8 + 8 + 8
	SizeCounterValueDouble = 1 + 8 + 8 + 8
)

// MaxPacketSize bounds the total size of any single packet. It equals
// the ring buffer's reservation slack; emitters truncate payloads so
// that no packet ever exceeds it.
const MaxPacketSize = 1024

// MaxPayload is the largest payload a dynamic packet may carry while
// staying within MaxPacketSize for every dynamic header layout.
const MaxPayload = MaxPacketSize - SizeZoneParamStringHdr

// Magic is the capture file magic, carried by the Init packet.
var Magic = [4]byte{'P', 'R', 'O', 'F'}

// Version is the capture format version written to the Init packet.
const Version = 1

// PacketSize returns the total on-wire size of the packet starting at
// b[off], derived from its type byte. It returns 0 for TagFree (the
// end-of-committed-run sentinel) and for any byte that is not a valid
// tag, which a consumer must treat the same way.
func PacketSize(b []byte, off int) int {
	switch Tag(b[off]) {
	case TagInit:
		return SizeInit
	case TagStaticString:
		return SizeStaticStringHdr + payloadLen(b, off+9)
	case TagLocation:
		return SizeLocation
	case TagStack:
		return SizeStackHdr + payloadLen(b, off+17)
	case TagThreadName:
		return SizeThreadNameHdr + payloadLen(b, off+9)
	case TagZoneStart:
		return SizeZoneStart
	case TagZoneEnd:
		return SizeZoneEnd
	case TagZoneDynamicName:
		return SizeZoneDynamicNameHdr + payloadLen(b, off+9)
	case TagZoneParamBool:
		return SizeZoneParamBool
	case TagZoneParamInt:
		return SizeZoneParamInt
	case TagZoneParamUint:
		return SizeZoneParamUint
	case TagZoneParamDouble:
		return SizeZoneParamDouble
	case TagZoneParamString:
		return SizeZoneParamStringHdr + payloadLen(b, off+17)
	case TagZoneFlow:
		return SizeZoneFlow
	case TagZoneFlowTerminate:
		return SizeZoneFlowTerminate
	case TagZoneCategory:
		return SizeZoneCategory
	case TagCounterTrack:
		return SizeCounterTrackHdr + payloadLen(b, off+9)
	case TagCounterValueInt:
		return SizeCounterValueInt
	case TagCounterValueDouble:
		return SizeCounterValueDouble
	}
	return 0
}

func payloadLen(b []byte, off int) int {
	return int(binary.LittleEndian.Uint16(b[off:]))
}

// ZoneStartLocation returns the location id referenced by a ZoneStart
// packet.
func ZoneStartLocation(p []byte) uint64 {
	return binary.LittleEndian.Uint64(p[25:])
}

// ZoneParamName returns the static name id referenced by any of the
// ZoneParam* packets.
func ZoneParamName(p []byte) uint64 {
	return binary.LittleEndian.Uint64(p[9:])
}

// ZoneCategoryName returns the static name id referenced by a
// ZoneCategory packet.
func ZoneCategoryName(p []byte) uint64 {
	return binary.LittleEndian.Uint64(p[9:])
}
