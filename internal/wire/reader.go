package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Packet is a decoded capture record. The concrete types below mirror
// the packet catalog one to one.
type Packet interface {
	packet()
}

type Init struct {
	Magic   [4]byte
	Version uint32
}

type StaticString struct {
	ID    uint64
	Value string
}

type Location struct {
	ID         uint64
	NameID     uint64
	FunctionID uint64
	FileID     uint64
	Line       uint32
}

type Stack struct {
	Begin uint64
	End   uint64
	Name  string
}

type ThreadName struct {
	TID  uint64
	Name string
}

type ZoneStart struct {
	Corr       uint64
	TID        uint64
	Timestamp  uint64
	LocationID uint64
}

type ZoneEnd struct {
	Corr      uint64
	Timestamp uint64
}

type ZoneDynamicName struct {
	Corr uint64
	Name string
}

type ZoneParamBool struct {
	Corr   uint64
	NameID uint64
	Value  bool
}

type ZoneParamInt struct {
	Corr   uint64
	NameID uint64
	Value  int64
}

type ZoneParamUint struct {
	Corr   uint64
	NameID uint64
	Value  uint64
}

type ZoneParamDouble struct {
	Corr   uint64
	NameID uint64
	Value  float64
}

type ZoneParamString struct {
	Corr   uint64
	NameID uint64
	Value  string
}

type ZoneFlow struct {
	Corr   uint64
	FlowID uint64
}

type ZoneFlowTerminate struct {
	Corr   uint64
	FlowID uint64
}

type ZoneCategory struct {
	Corr   uint64
	NameID uint64
}

type CounterTrack struct {
	TID  uint64
	Name string
}

type CounterValueInt struct {
	TID       uint64
	Timestamp uint64
	Value     int64
}

type CounterValueDouble struct {
	TID       uint64
	Timestamp uint64
	Value     float64
}

func (Init) packet()               {}
func (StaticString) packet()       {}
func (Location) packet()           {}
func (Stack) packet()              {}
func (ThreadName) packet()         {}
func (ZoneStart) packet()          {}
func (ZoneEnd) packet()            {}
func (ZoneDynamicName) packet()    {}
func (ZoneParamBool) packet()      {}
func (ZoneParamInt) packet()       {}
func (ZoneParamUint) packet()      {}
func (ZoneParamDouble) packet()    {}
func (ZoneParamString) packet()    {}
func (ZoneFlow) packet()           {}
func (ZoneFlowTerminate) packet()  {}
func (ZoneCategory) packet()       {}
func (CounterTrack) packet()       {}
func (CounterValueInt) packet()    {}
func (CounterValueDouble) packet() {}

// Reader decodes a capture stream packet by packet.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next packet in the stream, or io.EOF when the
// stream is exhausted. A TagFree byte or an unknown tag in the stream
// means the capture is malformed.
func (r *Reader) Next() (Packet, error) {
	t, err := r.r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch Tag(t) {
	case TagInit:
		var p Init
		var b [8]byte
		if _, err := io.ReadFull(r.r, b[:]); err != nil {
			return nil, err
		}
		copy(p.Magic[:], b[:4])
		p.Version = binary.LittleEndian.Uint32(b[4:])
		return p, nil
	case TagStaticString:
		id, err := r.u64()
		if err != nil {
			return nil, err
		}
		s, err := r.payload()
		if err != nil {
			return nil, err
		}
		return StaticString{ID: id, Value: s}, nil
	case TagLocation:
		var p Location
		var err error
		if p.ID, err = r.u64(); err != nil {
			return nil, err
		}
		if p.NameID, err = r.u64(); err != nil {
			return nil, err
		}
		if p.FunctionID, err = r.u64(); err != nil {
			return nil, err
		}
		if p.FileID, err = r.u64(); err != nil {
			return nil, err
		}
		if p.Line, err = r.u32(); err != nil {
			return nil, err
		}
		return p, nil
	case TagStack:
		begin, err := r.u64()
		if err != nil {
			return nil, err
		}
		end, err := r.u64()
		if err != nil {
			return nil, err
		}
		name, err := r.payload()
		if err != nil {
			return nil, err
		}
		return Stack{Begin: begin, End: end, Name: name}, nil
	case TagThreadName:
		tid, err := r.u64()
		if err != nil {
			return nil, err
		}
		name, err := r.payload()
		if err != nil {
			return nil, err
		}
		return ThreadName{TID: tid, Name: name}, nil
	case TagZoneStart:
		var p ZoneStart
		var err error
		if p.Corr, err = r.u64(); err != nil {
			return nil, err
		}
		if p.TID, err = r.u64(); err != nil {
			return nil, err
		}
		if p.Timestamp, err = r.u64(); err != nil {
			return nil, err
		}
		if p.LocationID, err = r.u64(); err != nil {
			return nil, err
		}
		return p, nil
	case TagZoneEnd:
		corr, err := r.u64()
		if err != nil {
			return nil, err
		}
		ts, err := r.u64()
		if err != nil {
			return nil, err
		}
		return ZoneEnd{Corr: corr, Timestamp: ts}, nil
	case TagZoneDynamicName:
		corr, err := r.u64()
		if err != nil {
			return nil, err
		}
		name, err := r.payload()
		if err != nil {
			return nil, err
		}
		return ZoneDynamicName{Corr: corr, Name: name}, nil
	case TagZoneParamBool:
		corr, nameID, err := r.corrName()
		if err != nil {
			return nil, err
		}
		v, err := r.r.ReadByte()
		if err != nil {
			return nil, err
		}
		return ZoneParamBool{Corr: corr, NameID: nameID, Value: v != 0}, nil
	case TagZoneParamInt:
		corr, nameID, err := r.corrName()
		if err != nil {
			return nil, err
		}
		v, err := r.u64()
		if err != nil {
			return nil, err
		}
		return ZoneParamInt{Corr: corr, NameID: nameID, Value: int64(v)}, nil
	case TagZoneParamUint:
		corr, nameID, err := r.corrName()
		if err != nil {
			return nil, err
		}
		v, err := r.u64()
		if err != nil {
			return nil, err
		}
		return ZoneParamUint{Corr: corr, NameID: nameID, Value: v}, nil
	case TagZoneParamDouble:
		corr, nameID, err := r.corrName()
		if err != nil {
			return nil, err
		}
		v, err := r.u64()
		if err != nil {
			return nil, err
		}
		return ZoneParamDouble{Corr: corr, NameID: nameID, Value: math.Float64frombits(v)}, nil
	case TagZoneParamString:
		corr, nameID, err := r.corrName()
		if err != nil {
			return nil, err
		}
		v, err := r.payload()
		if err != nil {
			return nil, err
		}
		return ZoneParamString{Corr: corr, NameID: nameID, Value: v}, nil
	case TagZoneFlow:
		corr, flow, err := r.corrName()
		if err != nil {
			return nil, err
		}
		return ZoneFlow{Corr: corr, FlowID: flow}, nil
	case TagZoneFlowTerminate:
		corr, flow, err := r.corrName()
		if err != nil {
			return nil, err
		}
		return ZoneFlowTerminate{Corr: corr, FlowID: flow}, nil
	case TagZoneCategory:
		corr, nameID, err := r.corrName()
		if err != nil {
			return nil, err
		}
		return ZoneCategory{Corr: corr, NameID: nameID}, nil
	case TagCounterTrack:
		tid, err := r.u64()
		if err != nil {
			return nil, err
		}
		name, err := r.payload()
		if err != nil {
			return nil, err
		}
		return CounterTrack{TID: tid, Name: name}, nil
	case TagCounterValueInt:
		tid, ts, err := r.corrName()
		if err != nil {
			return nil, err
		}
		v, err := r.u64()
		if err != nil {
			return nil, err
		}
		return CounterValueInt{TID: tid, Timestamp: ts, Value: int64(v)}, nil
	case TagCounterValueDouble:
		tid, ts, err := r.corrName()
		if err != nil {
			return nil, err
		}
		v, err := r.u64()
		if err != nil {
			return nil, err
		}
		return CounterValueDouble{TID: tid, Timestamp: ts, Value: math.Float64frombits(v)}, nil
	}
	return nil, fmt.Errorf("malformed capture: unknown packet tag %d", t)
}

func (r *Reader) u64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (r *Reader) u32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// corrName reads the two leading u64 fields shared by most zone and
// counter packets.
func (r *Reader) corrName() (uint64, uint64, error) {
	a, err := r.u64()
	if err != nil {
		return 0, 0, err
	}
	b, err := r.u64()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (r *Reader) payload() (string, error) {
	var b [2]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return "", err
	}
	n := int(binary.LittleEndian.Uint16(b[:]))
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
