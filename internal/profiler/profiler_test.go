package profiler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profiling-lite/profiling-lite-go/internal/ring"
)

func TestMakeDefaultConfig(t *testing.T) {
	t.Setenv(ENV_CAPTURE_PATH, "")
	t.Setenv(ENV_BUFFER_SIZE, "")
	cfg := MakeDefaultConfig()
	assert.Equal(t, "capture.bin-trace", cfg.CapturePath)
	assert.Equal(t, ring.DefaultSize, cfg.BufferSize)
	assert.True(t, cfg.CrashHandler)
}

func TestMakeDefaultConfigEnvOverrides(t *testing.T) {
	t.Setenv(ENV_CAPTURE_PATH, "/tmp/other.bin-trace")
	t.Setenv(ENV_BUFFER_SIZE, "65536")
	cfg := MakeDefaultConfig()
	assert.Equal(t, "/tmp/other.bin-trace", cfg.CapturePath)
	assert.Equal(t, 65536, cfg.BufferSize)
}

func TestMakeDefaultConfigIgnoresBadBufferSize(t *testing.T) {
	t.Setenv(ENV_BUFFER_SIZE, "not a number")
	cfg := MakeDefaultConfig()
	assert.Equal(t, ring.DefaultSize, cfg.BufferSize)

	t.Setenv(ENV_BUFFER_SIZE, "-1")
	cfg = MakeDefaultConfig()
	assert.Equal(t, ring.DefaultSize, cfg.BufferSize)
}

func TestStartFailsOnUnwritableSink(t *testing.T) {
	cfg := MakeDefaultConfig()
	cfg.CapturePath = filepath.Join(t.TempDir(), "no", "such", "dir", "capture.bin-trace")
	cfg.CrashHandler = false
	_, err := Start(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open capture sink")
}

func TestStopIsIdempotent(t *testing.T) {
	cfg := MakeDefaultConfig()
	cfg.CapturePath = filepath.Join(t.TempDir(), "capture.bin-trace")
	cfg.CrashHandler = false
	_, err := Start(cfg)
	require.NoError(t, err)
	Stop()
	Stop()
}

func TestNextCorrelatorIsUnique(t *testing.T) {
	a := NextCorrelator()
	b := NextCorrelator()
	assert.NotEqual(t, a, b)
}
