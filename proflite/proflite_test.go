package proflite_test

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profiling-lite/profiling-lite-go/internal/wire"
	"github.com/profiling-lite/profiling-lite-go/proflite"
)

func startCapture(t *testing.T, opts ...proflite.Option) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.bin-trace")
	opts = append([]proflite.Option{
		proflite.WithCapturePath(path),
		proflite.WithBufferSize(256 << 10),
	}, opts...)
	require.NoError(t, proflite.Init(opts...))
	return path
}

func decodeFile(t *testing.T, path string) []wire.Packet {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := wire.NewReader(f)
	var packets []wire.Packet
	for {
		p, err := r.Next()
		if err == io.EOF {
			return packets
		}
		require.NoError(t, err)
		packets = append(packets, p)
	}
}

var testLocation = proflite.NewLocation("test zone")

// One zone on one thread: the capture opens with Init and defines the
// location and its strings before the zone start references them.
func TestSingleZoneRoundTrip(t *testing.T) {
	path := startCapture(t)

	proflite.EmitZoneStart(1, 7, 1000, testLocation)
	proflite.EmitZoneEnd(1, 2000)
	proflite.Stop()

	packets := decodeFile(t, path)
	require.NotEmpty(t, packets)

	init, ok := packets[0].(wire.Init)
	require.True(t, ok, "first packet must be Init")
	assert.Equal(t, wire.Magic, init.Magic)
	assert.Equal(t, uint32(wire.Version), init.Version)

	definedStrings := make(map[uint64]string)
	definedLocations := make(map[uint64]wire.Location)
	var start *wire.ZoneStart
	var end *wire.ZoneEnd
	for _, p := range packets[1:] {
		switch p := p.(type) {
		case wire.StaticString:
			definedStrings[p.ID] = p.Value
		case wire.Location:
			_, ok := definedStrings[p.NameID]
			assert.True(t, ok, "location strings defined before the location")
			definedLocations[p.ID] = p
		case wire.ZoneStart:
			v := p
			start = &v
		case wire.ZoneEnd:
			v := p
			end = &v
		}
	}
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, uint64(1), start.Corr)
	assert.Equal(t, uint64(7), start.TID)
	assert.Equal(t, uint64(1000), start.Timestamp)
	assert.Equal(t, uint64(1), end.Corr)
	assert.Equal(t, uint64(2000), end.Timestamp)

	loc, ok := definedLocations[start.LocationID]
	require.True(t, ok, "zone start's location defined before use")
	assert.Equal(t, "test zone", definedStrings[loc.NameID])
}

var (
	workerLocation = proflite.NewLocation("worker")
	attemptParam   = proflite.NewStaticString("attempt")
)

// Two goroutines, a hundred zones each: all starts and ends survive,
// and within each correlator the start precedes the end.
func TestConcurrentZones(t *testing.T) {
	path := startCapture(t)

	const workers = 2
	const zonesPerWorker = 100
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < zonesPerWorker; i++ {
				z := proflite.Begin(workerLocation)
				z.SetParamInt(attemptParam, int64(i))
				z.End()
			}
		}()
	}
	wg.Wait()
	proflite.Stop()

	started := make(map[uint64]bool)
	ended := make(map[uint64]bool)
	for _, p := range decodeFile(t, path) {
		switch p := p.(type) {
		case wire.ZoneStart:
			started[p.Corr] = true
		case wire.ZoneEnd:
			assert.True(t, started[p.Corr], "start must precede end for corr %d", p.Corr)
			ended[p.Corr] = true
		case wire.ZoneParamInt:
			assert.True(t, started[p.Corr], "param must follow its zone start")
			assert.False(t, ended[p.Corr], "param must precede its zone end")
		}
	}
	assert.Len(t, started, workers*zonesPerWorker)
	assert.Len(t, ended, workers*zonesPerWorker)
}

// Counter samples: each value follows its track definition, and
// timestamps are nondecreasing per track.
func TestCounterTracks(t *testing.T) {
	path := startCapture(t)

	const tidA, tidB = 100, 101
	proflite.DefineCounterTrack(tidA, "heap bytes")
	proflite.DefineCounterTrack(tidB, "queue depth")
	for i := uint64(0); i < 50; i++ {
		proflite.EmitCounterInt(tidA, i*10, int64(i))
		proflite.EmitCounterDouble(tidB, i*10+5, float64(i)/2)
	}
	proflite.Stop()

	tracks := make(map[uint64]string)
	lastTS := make(map[uint64]uint64)
	var ints, doubles int
	for _, p := range decodeFile(t, path) {
		switch p := p.(type) {
		case wire.CounterTrack:
			tracks[p.TID] = p.Name
		case wire.CounterValueInt:
			assert.Contains(t, tracks, p.TID, "track defined before its samples")
			assert.GreaterOrEqual(t, p.Timestamp, lastTS[p.TID])
			lastTS[p.TID] = p.Timestamp
			ints++
		case wire.CounterValueDouble:
			assert.Contains(t, tracks, p.TID, "track defined before its samples")
			assert.GreaterOrEqual(t, p.Timestamp, lastTS[p.TID])
			lastTS[p.TID] = p.Timestamp
			doubles++
		}
	}
	assert.Equal(t, 50, ints)
	assert.Equal(t, 50, doubles)
	assert.Equal(t, "heap bytes", tracks[tidA])
	assert.Equal(t, "queue depth", tracks[tidB])
}

// Thread names, stacks, flows, categories, and the remaining parameter
// kinds all round-trip through the capture.
func TestMetadataAndAttributes(t *testing.T) {
	path := startCapture(t)

	okParam := proflite.NewStaticString("ok")
	ratioParam := proflite.NewStaticString("ratio")
	sizeParam := proflite.NewStaticString("size")
	noteParam := proflite.NewStaticString("note")
	category := proflite.NewStaticString("io")

	proflite.SetThreadName(7, "worker-7")
	proflite.DefineStack(0x1000, 0x2000, "main stack")

	flow := proflite.NewFlowID()
	z := proflite.Begin(workerLocation)
	z.SetDynamicName("request 42")
	z.SetParamBool(okParam, true)
	z.SetParamDouble(ratioParam, 0.75)
	z.SetParamUint(sizeParam, 4096)
	z.SetParamString(noteParam, "cached")
	z.SetCategory(category)
	z.AddFlow(flow)
	z.TerminateFlow(flow)
	z.End()
	proflite.Stop()

	var (
		gotThreadName, gotStack, gotDynName bool
		gotBool, gotDouble, gotUint, gotStr bool
		gotCategory, gotFlow, gotFlowTerm   bool
	)
	for _, p := range decodeFile(t, path) {
		switch p := p.(type) {
		case wire.ThreadName:
			assert.Equal(t, uint64(7), p.TID)
			assert.Equal(t, "worker-7", p.Name)
			gotThreadName = true
		case wire.Stack:
			assert.Equal(t, uint64(0x1000), p.Begin)
			assert.Equal(t, uint64(0x2000), p.End)
			assert.Equal(t, "main stack", p.Name)
			gotStack = true
		case wire.ZoneDynamicName:
			assert.Equal(t, "request 42", p.Name)
			gotDynName = true
		case wire.ZoneParamBool:
			assert.True(t, p.Value)
			gotBool = true
		case wire.ZoneParamDouble:
			assert.Equal(t, 0.75, p.Value)
			gotDouble = true
		case wire.ZoneParamUint:
			assert.Equal(t, uint64(4096), p.Value)
			gotUint = true
		case wire.ZoneParamString:
			assert.Equal(t, "cached", p.Value)
			gotStr = true
		case wire.ZoneCategory:
			gotCategory = true
		case wire.ZoneFlow:
			assert.Equal(t, flow, p.FlowID)
			gotFlow = true
		case wire.ZoneFlowTerminate:
			assert.Equal(t, flow, p.FlowID)
			gotFlowTerm = true
		}
	}
	assert.True(t, gotThreadName)
	assert.True(t, gotStack)
	assert.True(t, gotDynName)
	assert.True(t, gotBool)
	assert.True(t, gotDouble)
	assert.True(t, gotUint)
	assert.True(t, gotStr)
	assert.True(t, gotCategory)
	assert.True(t, gotFlow)
	assert.True(t, gotFlowTerm)
}

// The environment variable default is honoured when no option overrides
// it.
func TestCapturePathFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env-capture.bin-trace")
	t.Setenv("PROFLITE_CAPTURE_PATH", path)

	require.NoError(t, proflite.Init(proflite.WithBufferSize(256 << 10)))
	proflite.EmitZoneStart(1, 1, 1, testLocation)
	proflite.EmitZoneEnd(1, 2)
	proflite.Stop()

	packets := decodeFile(t, path)
	require.NotEmpty(t, packets)
	assert.IsType(t, wire.Init{}, packets[0])
}

func TestStopWithoutInitIsANoOp(t *testing.T) {
	proflite.Stop()
}

func TestNewFlowIDIsUnique(t *testing.T) {
	seen := make(map[uint64]struct{})
	for i := 0; i < 100; i++ {
		id := proflite.NewFlowID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
