package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"v2deck/internal/config"
	"v2deck/internal/engine"
	"v2deck/internal/history"
	"v2deck/internal/logger"
	"v2deck/internal/netsetup"
	"v2deck/internal/process"
	"v2deck/internal/profile"
	"v2deck/internal/settings"
)

var ErrNotConnected = errors.New("not connected")

// State is the connection lifecycle phase. Transitions only happen under the
// manager's lock, so callers never observe a half-applied session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "disconnected"
	}
}

// Process is the supervised proxy engine as the manager sees it.
type Process interface {
	Probe(grace time.Duration) error
	Alive() bool
	Stop()
}

// Status is a point-in-time snapshot of the connection.
type Status struct {
	Connected bool             `json:"connected"`
	State     string           `json:"state"`
	Mode      string           `json:"mode"`
	Profile   *profile.Profile `json:"profile,omitempty"`
}

// Manager owns all mutable connection state: the current profile, the engine
// and bridge process handles, and the applied network strategy. Connect and
// Disconnect serialize against each other; an operation in flight runs to
// completion before the next is admitted.
type Manager struct {
	mu       sync.Mutex
	cfg      *config.Config
	settings *settings.Store
	recorder *history.Recorder

	startEngine func(path string, args ...string) (Process, error)
	newStrategy func(s settings.Settings, p *profile.Profile) netsetup.Strategy

	state     State
	current   *profile.Profile
	engine    Process
	strategy  netsetup.Strategy
	sessionID uint
}

func New(cfg *config.Config, store *settings.Store, recorder *history.Recorder) *Manager {
	m := &Manager{
		cfg:      cfg,
		settings: store,
		recorder: recorder,
	}
	m.startEngine = func(path string, args ...string) (Process, error) {
		return process.Start(path, args...)
	}
	m.newStrategy = m.defaultStrategy
	return m
}

// NewWithDeps injects the engine starter and strategy factory for tests.
func NewWithDeps(cfg *config.Config, store *settings.Store, recorder *history.Recorder,
	startEngine func(string, ...string) (Process, error),
	newStrategy func(settings.Settings, *profile.Profile) netsetup.Strategy) *Manager {
	m := New(cfg, store, recorder)
	if startEngine != nil {
		m.startEngine = startEngine
	}
	if newStrategy != nil {
		m.newStrategy = newStrategy
	}
	return m
}

func (m *Manager) defaultStrategy(s settings.Settings, p *profile.Profile) netsetup.Strategy {
	if s.Mode == settings.ModeTun {
		return netsetup.NewTUNStrategy(
			m.cfg.TunDevice, s.TunMTU, s.SocksPort,
			m.cfg.Tun2socksBin(), p.Address,
			func(path string, args ...string) (netsetup.Bridge, error) {
				return process.Start(path, args...)
			})
	}
	return netsetup.NewSystemProxyStrategy(s.HTTPPort, s.SocksPort)
}

// Connect establishes a session for the profile. If a session is already
// active it is torn down first; two simultaneous connections never exist.
// Any failure triggers a full rollback before the error is returned, so the
// caller never needs a disconnect after a failed connect.
func (m *Manager) Connect(p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Disconnected {
		m.disconnectLocked("superseded")
	}

	if err := p.Validate(); err != nil {
		return err
	}

	m.state = Connecting
	m.current = p
	s := m.settings.Get()
	m.sessionID = m.recorder.Started(p.Name, s.Mode)

	if err := m.connectLocked(p, s); err != nil {
		m.disconnectLocked(err.Error())
		return err
	}

	m.state = Connected
	logger.Log.Infof("connected to %s (%s mode)", p.Name, s.Mode)
	return nil
}

func (m *Manager) connectLocked(p *profile.Profile, s settings.Settings) error {
	doc, err := engine.Generate(p, s, m.cfg.LogDir)
	if err != nil {
		return err
	}

	cfgPath := m.cfg.RuntimeConfigFile()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write engine config: %w", err)
	}

	proc, err := m.startEngine(m.cfg.XrayBin(), "run", "-config", cfgPath)
	if err != nil {
		return err
	}
	m.engine = proc
	if err := proc.Probe(time.Second); err != nil {
		return err
	}

	strategy := m.newStrategy(s, p)
	m.strategy = strategy
	if err := strategy.Setup(); err != nil {
		return err
	}
	return nil
}

// Disconnect tears the session down. It is idempotent and tolerant of
// partial state; calling it while already disconnected is a no-op success.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectLocked("")
}

// disconnectLocked runs teardown to completion regardless of individual step
// failures: the goal is the best achievable clean state, so cleanup errors
// are logged and swallowed.
func (m *Manager) disconnectLocked(reason string) {
	if m.state == Disconnected && m.engine == nil && m.strategy == nil {
		return
	}
	m.state = Disconnecting

	if m.strategy != nil {
		for _, err := range m.strategy.Teardown() {
			logger.Log.Warnf("teardown: %v", err)
		}
		m.strategy = nil
	}

	if m.engine != nil {
		m.engine.Stop()
		m.engine = nil
	}

	m.recorder.Ended(m.sessionID, reason)
	m.sessionID = 0
	m.current = nil
	m.state = Disconnected
	logger.Log.Debug("disconnected")
}

// Status reports the connected flag, active mode and current profile.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		Connected: m.state == Connected,
		State:     m.state.String(),
		Mode:      m.settings.Get().Mode,
		Profile:   m.current,
	}
}

// Connected reports whether a session is active.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Connected
}
