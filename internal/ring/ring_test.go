package ring

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profiling-lite/profiling-lite-go/internal/wire"
)

// zoneEndPacket builds one complete ZoneEnd packet.
func zoneEndPacket(corr, ts uint64) []byte {
	b := make([]byte, wire.SizeZoneEnd)
	b[0] = byte(wire.TagZoneEnd)
	wire.PutZoneEnd(b, corr, ts)
	return b
}

// emitZoneEnd reserves and publishes one ZoneEnd packet.
func emitZoneEnd(b *Buffer, corr, ts uint64) {
	pkt := zoneEndPacket(corr, ts)
	b.Publish(b.Reserve(len(pkt)), pkt)
}

// drainCorrs reads a ready range and returns the correlators of the
// ZoneEnd packets in it, releasing the range afterwards.
func drainCorrs(t *testing.T, b *Buffer) []uint64 {
	t.Helper()
	start, end := b.ReadyRange()
	var corrs []uint64
	data := b.Range(start, end)
	for off := 0; off < len(data); {
		n := wire.PacketSize(data, off)
		require.NotZero(t, n, "malformed packet in drained range")
		require.Equal(t, wire.TagZoneEnd, wire.Tag(data[off]))
		corrs = append(corrs, binary.LittleEndian.Uint64(data[off+1:]))
		off += PaddedSize(n)
	}
	b.Release(start, end)
	return corrs
}

func TestPaddedSize(t *testing.T) {
	assert.Equal(t, 20, PaddedSize(wire.SizeZoneEnd))
	assert.Equal(t, 36, PaddedSize(wire.SizeZoneStart))
	assert.Equal(t, 12, PaddedSize(12))
	assert.Equal(t, wire.MaxPacketSize, PaddedSize(wire.MaxPacketSize))
}

func TestEmptyRingHasNoReadyData(t *testing.T) {
	b := New(DefaultSize)
	start, end := b.ReadyRange()
	assert.Equal(t, start, end)
}

func TestReserveCommitDrain(t *testing.T) {
	b := New(DefaultSize)
	emitZoneEnd(b, 1, 100)
	emitZoneEnd(b, 2, 200)
	emitZoneEnd(b, 3, 300)

	assert.Equal(t, []uint64{1, 2, 3}, drainCorrs(t, b))

	// Everything was released; nothing is ready until the next publish.
	start, end := b.ReadyRange()
	assert.Equal(t, start, end)
}

// Every reservation starts on a word boundary, so a packet's first
// word is never shared with a neighbour.
func TestReservationsAreWordAligned(t *testing.T) {
	b := New(DefaultSize)
	sizes := []int{
		wire.SizeZoneEnd, wire.SizeZoneStart, wire.SizeZoneParamBool,
		wire.ThreadNameSize(3), wire.SizeInit,
	}
	for _, n := range sizes {
		off := b.Reserve(n)
		assert.Zero(t, off%4, "reservation of %d bytes landed at %d", n, off)
	}
}

// An unpublished reservation hides everything published after it: the
// reader stops at the first free word.
func TestUnpublishedReservationBlocksReader(t *testing.T) {
	b := New(DefaultSize)

	stalled := b.Reserve(wire.SizeZoneEnd)
	emitZoneEnd(b, 2, 200)

	start, end := b.ReadyRange()
	assert.Equal(t, start, end, "reader must stop at the stalled packet")

	b.Publish(stalled, zoneEndPacket(1, 100))
	assert.Equal(t, []uint64{1, 2}, drainCorrs(t, b))
}

// Draining and releasing a range makes its bytes reusable: packets
// reserved over recycled offsets are drained on a later pass.
func TestReclamation(t *testing.T) {
	b := New(0) // minimum size, to lap the arena quickly

	var emitted, drained uint64
	for lap := 0; lap < 3; lap++ {
		// Half an arena per batch so every batch after the first
		// reuses offsets released by an earlier drain.
		batch := b.Size() / PaddedSize(wire.SizeZoneEnd) / 2
		for i := 0; i < batch; i++ {
			emitZoneEnd(b, emitted, emitted)
			emitted++
		}
		for {
			corrs := drainCorrs(t, b)
			if len(corrs) == 0 {
				break
			}
			for _, c := range corrs {
				require.Equal(t, drained, c)
				drained++
			}
		}
	}
	assert.Equal(t, emitted, drained)
}

// Forcing several wraps produces only structurally valid packets and
// loses nothing while the consumer keeps up.
func TestWrapCorrectness(t *testing.T) {
	b := New(0)
	var out bytes.Buffer

	drain := func() {
		for {
			start, end := b.ReadyRange()
			if start == end {
				return
			}
			data := b.Range(start, end)
			for off := 0; off < len(data); {
				n := wire.PacketSize(data, off)
				require.NotZero(t, n)
				out.Write(data[off : off+n])
				off += PaddedSize(n)
			}
			b.Release(start, end)
		}
	}

	// Three laps' worth of packets, drained every few emissions so the
	// consumer keeps up and no packet is overwritten.
	total := 3 * (b.Size() / PaddedSize(wire.SizeZoneEnd))
	for i := 0; i < total; i++ {
		emitZoneEnd(b, uint64(i), uint64(i))
		if i%16 == 15 {
			drain()
		}
	}
	drain()

	r := wire.NewReader(&out)
	var seen int
	for {
		p, err := r.Next()
		if err != nil {
			break
		}
		ze, ok := p.(wire.ZoneEnd)
		require.True(t, ok)
		require.Equal(t, uint64(seen), ze.Corr, "packets must drain in emission order")
		seen++
	}
	assert.Equal(t, total, seen)
}

// A reservation that would cross the limit moves the write cursor back
// to offset 0.
func TestReservationWrapsAtLimit(t *testing.T) {
	b := New(0)
	padded := PaddedSize(wire.SizeZoneEnd)
	// Walk the write cursor close to the limit.
	for b.writePos.Load() < int64(b.limit-padded) {
		b.Reserve(wire.SizeZoneEnd)
	}
	// The next reservation crosses the limit: it keeps its start
	// offset but moves the cursor to 0.
	off := b.Reserve(wire.SizeZoneEnd)
	assert.Less(t, off, b.limit)
	assert.Equal(t, int64(0), b.writePos.Load())
}

// Concurrent producers: every published packet is drained exactly once
// and in a consistent order (no torn or duplicated packets).
func TestConcurrentProducers(t *testing.T) {
	const producers = 4
	const perProducer = 500

	b := New(DefaultSize)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				emitZoneEnd(b, uint64(p)<<32|uint64(i), uint64(i))
			}
		}(p)
	}

	seen := make(map[uint64]struct{})
	lastPerProducer := make(map[uint64]uint64)
	deadline := time.Now().Add(10 * time.Second)
	for len(seen) < producers*perProducer {
		if time.Now().After(deadline) {
			t.Fatalf("timed out with %d/%d packets", len(seen), producers*perProducer)
		}
		for _, c := range drainCorrs(t, b) {
			_, dup := seen[c]
			require.False(t, dup, "packet drained twice")
			seen[c] = struct{}{}

			// Within one producer, packets drain in emission order.
			p, i := c>>32, c&0xffffffff
			if last, ok := lastPerProducer[p]; ok {
				require.Greater(t, i, last)
			}
			lastPerProducer[p] = i
		}
	}
	wg.Wait()
	assert.Len(t, seen, producers*perProducer)
}
