// Package ring implements the byte arena that decouples the many
// producer threads from the single capture writer. Producers reserve
// space with a CAS on the write cursor and publish the finished packet
// with a single atomic store of its first word; the writer walks
// committed packets, hands them off, and zeroes the bytes for reuse.
//
// Reservations are rounded up to 4-byte multiples, so every packet
// starts on a word boundary and its type byte lives in a word no other
// packet touches. That first word is accessed only atomically: Publish
// stores the type byte together with the first three header bytes
// (release), and the reader polls it with an acquire load. Everything
// past the first word is plain memory, ordered through that word. The
// padding exists only in the arena; the writer strips it when
// streaming packets to the sink.
package ring

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/profiling-lite/profiling-lite-go/internal/wire"
)

// DefaultSize is the arena size used when no explicit size is
// configured.
const DefaultSize = 4 << 20

// slack is the no-reservation margin before the end of the arena. A
// reservation never starts past the limit, but the final packet of a
// lap may extend into the slack, so slack must be at least the largest
// padded packet.
const slack = wire.MaxPacketSize

// PaddedSize returns the arena footprint of an n-byte packet: n
// rounded up to the word boundary the next packet starts on.
func PaddedSize(n int) int {
	return (n + 3) &^ 3
}

// Buffer is the shared arena. Any number of goroutines may reserve and
// publish concurrently; ReadyRange and Release belong to the single
// consumer.
//
// A producer that laps the consumer overwrites unread bytes; the
// capture silently loses the overwritten packets. Producers never
// inspect the read position, which keeps Reserve wait-free apart from
// CAS retries. The same policy means recycled bytes are handed back to
// producers without a synchronizing edge from the consumer's zeroing;
// that window is part of the documented overrun behaviour.
type Buffer struct {
	data  []byte
	limit int
	// writePos is the byte offset of the next reservation, always a
	// multiple of 4.
	writePos atomic.Int64
	// readPos is owned exclusively by the consumer.
	readPos int
}

// New returns an arena of the given size. The size must comfortably
// exceed the reservation slack; sizes below 64 KiB are raised to it.
func New(size int) *Buffer {
	const minSize = 64 << 10
	if size < minSize {
		size = minSize
	}
	return &Buffer{
		data:  make([]byte, size),
		limit: size - slack,
	}
}

// Reserve atomically claims space for an n-byte packet and returns the
// packet's start offset. A reservation that would reach the limit keeps
// its start offset, extending into the slack region, and moves the
// write cursor back to offset 0 for the next one. n must not exceed
// wire.MaxPacketSize.
func (b *Buffer) Reserve(n int) int {
	padded := int64(PaddedSize(n))
	for {
		pos := b.writePos.Load()
		next := pos + padded
		if next >= int64(b.limit) {
			next = 0
		}
		if b.writePos.CompareAndSwap(pos, next) {
			return int(pos)
		}
	}
}

// Publish copies pkt into the reservation at off and commits it. The
// caller builds the complete packet, type byte included, outside the
// arena; the body lands with plain stores and the first word, type
// byte and all, is stored atomically with release ordering. That
// single store is the publication point; after Publish the packet must
// not be written again.
func (b *Buffer) Publish(off int, pkt []byte) {
	copy(b.data[off+4:off+len(pkt)], pkt[4:])
	// Arena words are little-endian, native for the targeted
	// architectures: the stored value's low byte is the type byte at
	// offset off.
	atomic.StoreUint32(b.word(off), binary.LittleEndian.Uint32(pkt[:4]))
}

// ReadyRange returns the next contiguous run of committed packets as a
// [start, end) offset pair, and advances the read position. The run
// ends at the first free (or foreign) word, or at the wrap, whichever
// comes first. An empty range means nothing is visible yet.
//
// Only the consumer may call ReadyRange.
func (b *Buffer) ReadyRange() (start, end int) {
	start = b.readPos
	cur := start
	for cur < b.limit {
		if b.loadTag(cur) == byte(wire.TagFree) {
			break
		}
		n := wire.PacketSize(b.data, cur)
		if n == 0 || cur+n > len(b.data) {
			// Overrun damage; stop here and let the wrap resync.
			break
		}
		cur += PaddedSize(n)
	}
	if cur >= b.limit {
		b.readPos = 0
	} else {
		b.readPos = cur
	}
	return start, cur
}

// Range returns the bytes of a drained [start, end) pair. Packets
// inside it are padded: step by PaddedSize of each packet's size.
func (b *Buffer) Range(start, end int) []byte {
	return b.data[start:end]
}

// Release zeroes a drained range, returning its bytes to the free
// state so producers can reuse them.
func (b *Buffer) Release(start, end int) {
	clear(b.data[start:end])
}

// Size returns the arena capacity in bytes.
func (b *Buffer) Size() int {
	return len(b.data)
}

// word returns the 4-byte word starting at off. Reservation padding
// keeps packet starts word-aligned, so the word holds only this
// packet's bytes.
func (b *Buffer) word(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&b.data[off]))
}

func (b *Buffer) loadTag(off int) byte {
	return byte(atomic.LoadUint32(b.word(off)))
}
