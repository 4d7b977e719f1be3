package manager

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"v2deck/internal/config"
	"v2deck/internal/netsetup"
	"v2deck/internal/profile"
	"v2deck/internal/settings"
)

const testUUID = "11111111-2222-3333-4444-555555555555"

type fakeProcess struct {
	probeErr error
	stopped  bool
}

func (f *fakeProcess) Probe(time.Duration) error { return f.probeErr }
func (f *fakeProcess) Alive() bool               { return !f.stopped }
func (f *fakeProcess) Stop()                     { f.stopped = true }

type fakeStrategy struct {
	setupErr  error
	setupRuns int
	tornDown  int
}

func (f *fakeStrategy) Setup() error {
	f.setupRuns++
	return f.setupErr
}

func (f *fakeStrategy) Teardown() []error {
	f.tornDown++
	return nil
}

type harness struct {
	m        *Manager
	proc     *fakeProcess
	strategy *fakeStrategy
	startErr error

	startedPaths []string
	procs        []*fakeProcess
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base := t.TempDir()
	cfg := &config.Config{
		DataDir:    filepath.Join(base, "data"),
		RuntimeDir: filepath.Join(base, "runtime"),
		LogDir:     filepath.Join(base, "logs"),
		BinDir:     filepath.Join(base, "bin"),
		TunDevice:  "tun0",
	}
	require.NoError(t, cfg.EnsureDirs())

	store := settings.NewStore(cfg.SettingsFile())
	require.NoError(t, store.Load())

	h := &harness{strategy: &fakeStrategy{}}
	h.m = NewWithDeps(cfg, store, nil,
		func(path string, args ...string) (Process, error) {
			if h.startErr != nil {
				return nil, h.startErr
			}
			h.proc = &fakeProcess{}
			h.startedPaths = append(h.startedPaths, path)
			h.procs = append(h.procs, h.proc)
			return h.proc, nil
		},
		func(settings.Settings, *profile.Profile) netsetup.Strategy {
			return h.strategy
		})
	return h
}

func testProfile(name string) *profile.Profile {
	return &profile.Profile{
		Name:       name,
		UUID:       testUUID,
		Address:    "example.com",
		Port:       443,
		Encryption: "none",
		Network:    profile.NetworkTCP,
		Security:   profile.SecurityNone,
	}
}

func TestConnect_Success(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.Connect(testProfile("home")))

	assert.True(t, h.m.Connected())
	st := h.m.Status()
	assert.True(t, st.Connected)
	assert.Equal(t, "connected", st.State)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "home", st.Profile.Name)

	assert.Equal(t, 1, h.strategy.setupRuns)
	assert.False(t, h.proc.stopped)

	// generated config landed on disk for the engine to read
	data, err := os.ReadFile(h.m.cfg.RuntimeConfigFile())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"vless"`)
	assert.Contains(t, string(data), `"example.com"`)
}

func TestConnect_InvalidProfileLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	p := testProfile("bad")
	p.UUID = "not-a-uuid"

	err := h.m.Connect(p)
	assert.Error(t, err)
	assert.False(t, h.m.Connected())
	assert.Empty(t, h.startedPaths)
	assert.Equal(t, 0, h.strategy.setupRuns)
}

func TestConnect_EngineStartFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	h.startErr = errors.New("binary missing")

	err := h.m.Connect(testProfile("home"))
	assert.Error(t, err)
	assert.False(t, h.m.Connected())
	assert.Equal(t, "disconnected", h.m.Status().State)
	assert.Equal(t, 0, h.strategy.setupRuns)
}

func TestConnect_SetupFailureStopsEngine(t *testing.T) {
	h := newHarness(t)
	h.strategy.setupErr = errors.New("route exists")

	err := h.m.Connect(testProfile("home"))
	assert.Error(t, err)
	assert.False(t, h.m.Connected())
	// the engine started before setup failed, so rollback must stop it and
	// unwind whatever the strategy applied
	assert.True(t, h.proc.stopped)
	assert.Equal(t, 1, h.strategy.tornDown)
}

func TestConnect_SupersedesActiveSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.Connect(testProfile("first")))
	first := h.proc

	require.NoError(t, h.m.Connect(testProfile("second")))

	assert.True(t, first.stopped)
	assert.False(t, h.proc.stopped)
	assert.Equal(t, "second", h.m.Status().Profile.Name)
	assert.Len(t, h.procs, 2)
	assert.Equal(t, 2, h.strategy.setupRuns)
}

func TestDisconnect_Idempotent(t *testing.T) {
	h := newHarness(t)

	// disconnect with no session is a no-op
	h.m.Disconnect()
	assert.False(t, h.m.Connected())
	assert.Equal(t, 0, h.strategy.tornDown)

	require.NoError(t, h.m.Connect(testProfile("home")))
	h.m.Disconnect()
	assert.False(t, h.m.Connected())
	assert.True(t, h.proc.stopped)
	assert.Equal(t, 1, h.strategy.tornDown)

	h.m.Disconnect()
	assert.Equal(t, 1, h.strategy.tornDown)
}

func TestStatus_ReportsMode(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, settings.ModeTun, h.m.Status().Mode)

	require.NoError(t, h.m.settings.Set(map[string]any{"mode": settings.ModeSystem}))
	assert.Equal(t, settings.ModeSystem, h.m.Status().Mode)
}
