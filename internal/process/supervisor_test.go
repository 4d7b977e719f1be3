package process

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript drops an executable shell script into a temp dir.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestStart_MissingBinary(t *testing.T) {
	_, err := Start(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrBinaryMissing)
}

func TestStart_NotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	_, err := Start(path)
	assert.ErrorIs(t, err, ErrBinaryMissing)
}

func TestProbe_LongRunningProcessPasses(t *testing.T) {
	h, err := Start(writeScript(t, "sleep 10"))
	require.NoError(t, err)
	defer h.Stop()

	assert.NoError(t, h.Probe(100*time.Millisecond))
	assert.True(t, h.Alive())
}

func TestProbe_FastExitSurfacesStderr(t *testing.T) {
	h, err := Start(writeScript(t, `echo "config error: bad port" >&2; exit 1`))
	require.NoError(t, err)
	defer h.Stop()

	err = h.Probe(2 * time.Second)
	assert.ErrorIs(t, err, ErrProcessStartFailed)
	assert.Contains(t, err.Error(), "config error: bad port")
	assert.False(t, h.Alive())
}

func TestStop_TerminatesGroupAndIsIdempotent(t *testing.T) {
	h, err := Start(writeScript(t, "sleep 10"))
	require.NoError(t, err)
	require.True(t, h.Alive())

	h.Stop()

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit after Stop")
	}
	assert.False(t, h.Alive())

	h.Stop()
	h.Stop()
}

func TestStop_NilHandle(t *testing.T) {
	var h *Handle
	h.Stop()
	assert.False(t, h.Alive())
}

func TestBoundedBuffer_CapsCapture(t *testing.T) {
	b := newBoundedBuffer(8)
	n, err := b.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "01234567", b.Head(100))
	assert.Equal(t, "0123", b.Head(4))

	// further writes are dropped, not errors
	_, err = b.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, "01234567", b.Head(100))
}
