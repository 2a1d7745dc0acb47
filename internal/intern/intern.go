// Package intern assigns capture-lifetime-stable u64 identifiers to
// static strings and source locations, and tracks which of them the
// capture writer has already defined in the output stream.
//
// Identifiers are highwayhash-64 digests of the content, so the same
// literal registered from two places gets one id and one definition
// packet. The registry maps ids back to their content for the writer;
// registration happens off the hot path, when the static handles are
// created.
package intern

import (
	"encoding/binary"
	"sync"

	"github.com/minio/highwayhash"
)

var hashKey [32]byte

// Location describes a static source location.
type Location struct {
	Name     string
	Function string
	File     string
	Line     uint32
}

// StringID derives the stable identifier for a static string.
func StringID(s string) uint64 {
	return highwayhash.Sum64([]byte(s), hashKey[:])
}

// LocationID derives the stable identifier for a location from all of
// its fields.
func LocationID(l Location) uint64 {
	b := make([]byte, 0, len(l.Name)+len(l.Function)+len(l.File)+7)
	b = append(b, l.Name...)
	b = append(b, 0)
	b = append(b, l.Function...)
	b = append(b, 0)
	b = append(b, l.File...)
	b = append(b, 0)
	b = binary.LittleEndian.AppendUint32(b, l.Line)
	return highwayhash.Sum64(b, hashKey[:])
}

// The process-wide registry. Static handles register here at creation
// time; the writer resolves ids back to content when it emits
// definition packets.
var reg = struct {
	sync.RWMutex
	strings   map[uint64]string
	locations map[uint64]Location
}{
	strings:   make(map[uint64]string),
	locations: make(map[uint64]Location),
}

// RegisterString records s in the registry and returns its id.
func RegisterString(s string) uint64 {
	id := StringID(s)
	reg.Lock()
	reg.strings[id] = s
	reg.Unlock()
	return id
}

// RegisterLocation records l and its three string components in the
// registry and returns the location id.
func RegisterLocation(l Location) uint64 {
	RegisterString(l.Name)
	RegisterString(l.Function)
	RegisterString(l.File)
	id := LocationID(l)
	reg.Lock()
	reg.locations[id] = l
	reg.Unlock()
	return id
}

// StringByID resolves a registered string id.
func StringByID(id uint64) (string, bool) {
	reg.RLock()
	s, ok := reg.strings[id]
	reg.RUnlock()
	return s, ok
}

// LocationByID resolves a registered location id.
func LocationByID(id uint64) (Location, bool) {
	reg.RLock()
	l, ok := reg.locations[id]
	reg.RUnlock()
	return l, ok
}

// Tracker holds the writer-private seen-sets. Each distinct id is
// reported exactly once, the first time the writer encounters it.
type Tracker struct {
	strings   map[uint64]struct{}
	locations map[uint64]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		strings:   make(map[uint64]struct{}),
		locations: make(map[uint64]struct{}),
	}
}

// ShouldEmitString reports whether id has not been defined yet, and
// marks it defined.
func (t *Tracker) ShouldEmitString(id uint64) bool {
	if _, ok := t.strings[id]; ok {
		return false
	}
	t.strings[id] = struct{}{}
	return true
}

// ShouldEmitLocation reports whether id has not been defined yet, and
// marks it defined.
func (t *Tracker) ShouldEmitLocation(id uint64) bool {
	if _, ok := t.locations[id]; ok {
		return false
	}
	t.locations[id] = struct{}{}
	return true
}
