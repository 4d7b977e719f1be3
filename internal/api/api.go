// Package api is the control surface exposed to an embedding host (a UI or
// RPC layer). Every method returns a Result envelope; no error or panic ever
// crosses this boundary.
package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"v2deck/internal/checker"
	"v2deck/internal/config"
	"v2deck/internal/history"
	"v2deck/internal/install"
	"v2deck/internal/manager"
	"v2deck/internal/profile"
	"v2deck/internal/settings"
)

// Result is the uniform envelope: a success flag plus either a payload or an
// error message.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(data any) Result {
	return Result{Success: true, Data: data}
}

func fail(err error) Result {
	return Result{Success: false, Error: err.Error()}
}

// API bundles all components behind the envelope boundary.
type API struct {
	cfg       *config.Config
	settings  *settings.Store
	profiles  *profile.Store
	manager   *manager.Manager
	checker   *checker.Checker
	installer *install.Installer
	recorder  *history.Recorder
}

func New(cfg *config.Config, st *settings.Store, ps *profile.Store, m *manager.Manager,
	ch *checker.Checker, inst *install.Installer, rec *history.Recorder) *API {
	return &API{
		cfg:       cfg,
		settings:  st,
		profiles:  ps,
		manager:   m,
		checker:   ch,
		installer: inst,
		recorder:  rec,
	}
}

// ---- Settings ----

func (a *API) GetSettings() Result {
	return ok(a.settings.Get())
}

func (a *API) SetSettings(patch map[string]any) Result {
	if err := a.settings.Set(patch); err != nil {
		return fail(err)
	}
	return ok(a.settings.Get())
}

func (a *API) ResetSettings() Result {
	s, err := a.settings.Reset()
	if err != nil {
		return fail(err)
	}
	return ok(s)
}

// ---- Profiles ----

func (a *API) ParseURI(uri string) Result {
	p, err := profile.FromURI(uri)
	if err != nil {
		return fail(err)
	}
	return ok(p)
}

func (a *API) SaveProfile(p *profile.Profile) Result {
	if err := p.Validate(); err != nil {
		return fail(err)
	}
	if err := a.profiles.Save(p); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// UpdateProfile overwrites an existing profile; same path as SaveProfile
// since profiles are keyed by name.
func (a *API) UpdateProfile(p *profile.Profile) Result {
	return a.SaveProfile(p)
}

func (a *API) LoadProfiles() Result {
	list, err := a.profiles.List()
	if err != nil {
		return fail(err)
	}
	return ok(list)
}

func (a *API) DeleteProfile(name string) Result {
	if err := a.profiles.Delete(name); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (a *API) ImportFromURI(uri string) Result {
	p, err := profile.FromURI(uri)
	if err != nil {
		return fail(err)
	}
	if err := a.profiles.Save(p); err != nil {
		return fail(err)
	}
	return ok(p)
}

// ---- Connection ----

func (a *API) Connect(p *profile.Profile) Result {
	if err := a.manager.Connect(p); err != nil {
		return fail(err)
	}
	return ok(a.manager.Status())
}

func (a *API) Disconnect() Result {
	a.manager.Disconnect()
	return ok(nil)
}

func (a *API) Status() Result {
	return ok(a.manager.Status())
}

// ---- Diagnostics ----

func (a *API) TestConnection() Result {
	if !a.manager.Connected() {
		return fail(manager.ErrNotConnected)
	}
	if err := a.checker.TestConnection(a.settings.Get().SocksPort); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (a *API) GetPublicIP() Result {
	info, err := a.checker.PublicIP(a.settings.Get().SocksPort, a.manager.Connected())
	if err != nil {
		return fail(err)
	}
	return ok(info)
}

// GetLogs returns the last n lines of the engine error log.
func (a *API) GetLogs(n int) Result {
	if n <= 0 {
		n = 50
	}
	logFile := filepath.Join(a.cfg.LogDir, "xray-error.log")
	data, err := os.ReadFile(logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return ok("No logs yet")
		}
		return fail(err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return ok(strings.Join(lines, "\n"))
}

func (a *API) History(limit int) Result {
	if limit <= 0 {
		limit = 20
	}
	sessions, err := a.recorder.Recent(limit)
	if err != nil {
		return fail(err)
	}
	return ok(sessions)
}

// ---- Binaries ----

func (a *API) CheckBinaries() Result {
	return ok(a.installer.Check())
}

func (a *API) InstallBinaries() Result {
	if err := a.installer.Install(); err != nil {
		return fail(fmt.Errorf("install failed: %w", err))
	}
	return ok(a.installer.Check())
}

func (a *API) UninstallBinaries() Result {
	if a.manager.Connected() {
		a.manager.Disconnect()
	}
	if err := a.installer.Uninstall(); err != nil {
		return fail(err)
	}
	return ok(nil)
}
