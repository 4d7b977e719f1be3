package netsetup

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"v2deck/internal/logger"
)

// tunAddr is the address block assigned to the virtual interface. 198.18.0.0/15
// is reserved for benchmarking and never routed on the open internet.
const tunAddr = "198.18.0.1/15"

var gatewayPattern = regexp.MustCompile(`via\s+([\d.]+)`)

// TUNStrategy creates a virtual interface, bridges it to the SOCKS listener
// with an external helper process and redirects the default route through it.
type TUNStrategy struct {
	Device       string
	MTU          int
	SocksPort    int
	Tun2socksBin string
	ServerAddr   string

	exec    Executor
	start   StartFunc
	resolve func(host string) string

	// applied state, reversed on teardown
	bridge       Bridge
	serverIP     string
	pinnedServer bool
	deviceUp     bool
	routeSet     bool
}

func NewTUNStrategy(device string, mtu, socksPort int, tun2socksBin, serverAddr string, start StartFunc) *TUNStrategy {
	return &TUNStrategy{
		Device:       device,
		MTU:          mtu,
		SocksPort:    socksPort,
		Tun2socksBin: tun2socksBin,
		ServerAddr:   serverAddr,
		exec:         osExec{},
		start:        start,
		resolve:      resolveIPv4,
	}
}

// NewTUNStrategyWithDeps injects the executor and resolver for tests.
func NewTUNStrategyWithDeps(device string, mtu, socksPort int, tun2socksBin, serverAddr string, start StartFunc, exec Executor, resolve func(string) string) *TUNStrategy {
	s := NewTUNStrategy(device, mtu, socksPort, tun2socksBin, serverAddr, start)
	s.exec = exec
	if resolve != nil {
		s.resolve = resolve
	}
	return s
}

// Setup walks the interface/route state machine in order. Ordering is
// load-bearing: device before address before link-up before routes. On any
// failure every step already applied is unwound in reverse before the error
// is returned.
func (t *TUNStrategy) Setup() error {
	if err := t.exec.Run("ip", "tuntap", "add", "mode", "tun", "dev", t.Device); err != nil {
		return fmt.Errorf("%w: create device %s: %v", ErrNetworkSetupFailed, t.Device, err)
	}

	if err := t.setupAfterDevice(); err != nil {
		for _, terr := range t.Teardown() {
			logger.Log.Warnf("tun rollback: %v", terr)
		}
		return err
	}
	return nil
}

func (t *TUNStrategy) setupAfterDevice() error {
	if err := t.exec.Run("ip", "addr", "add", tunAddr, "dev", t.Device); err != nil {
		return fmt.Errorf("%w: assign address: %v", ErrNetworkSetupFailed, err)
	}
	if err := t.exec.Run("ip", "link", "set", "dev", t.Device, "up"); err != nil {
		return fmt.Errorf("%w: link up: %v", ErrNetworkSetupFailed, err)
	}
	t.deviceUp = true

	// MTU is tuning, not correctness
	if err := t.exec.Run("ip", "link", "set", "dev", t.Device, "mtu", strconv.Itoa(t.MTU)); err != nil {
		logger.Log.Warnf("failed to set mtu %d on %s: %v", t.MTU, t.Device, err)
	}

	// Snapshot the current default route and pin a host route to the proxy
	// endpoint through the pre-existing gateway, so the proxy's own upstream
	// traffic does not loop through the tunnel it is serving.
	t.serverIP = t.resolve(t.ServerAddr)
	routeOut, err := t.exec.Output("ip", "route", "show", "default")
	if err != nil {
		logger.Log.Warnf("failed to read default route: %v", err)
	} else if m := gatewayPattern.FindStringSubmatch(string(routeOut)); m != nil {
		if err := t.exec.Run("ip", "route", "add", t.serverIP+"/32", "via", m[1]); err != nil {
			logger.Log.Warnf("failed to pin server route: %v", err)
		} else {
			t.pinnedServer = true
		}
	} else {
		// No parseable gateway (unusual route table formats, IPv6-only
		// defaults). Skip pinning; the server may end up routed through the
		// tunnel itself.
		logger.Log.Warnf("no gateway found in default route %q; skipping server route pin", string(routeOut))
	}

	bridge, err := t.start(t.Tun2socksBin,
		"-device", t.Device,
		"-proxy", fmt.Sprintf("socks5://127.0.0.1:%d", t.SocksPort))
	if err != nil {
		return fmt.Errorf("%w: start bridge: %v", ErrNetworkSetupFailed, err)
	}
	t.bridge = bridge
	if err := bridge.Probe(500 * time.Millisecond); err != nil {
		return fmt.Errorf("%w: bridge died: %v", ErrNetworkSetupFailed, err)
	}

	if err := t.exec.Run("ip", "route", "add", "default", "dev", t.Device, "metric", "1"); err != nil {
		return fmt.Errorf("%w: redirect default route: %v", ErrNetworkSetupFailed, err)
	}
	t.routeSet = true

	return nil
}

// Teardown unwinds every applied step in reverse. Each step is individually
// best-effort; the device may already be partially gone.
func (t *TUNStrategy) Teardown() []error {
	var errs []error

	if t.routeSet {
		if err := t.exec.Run("ip", "route", "del", "default", "dev", t.Device); err != nil {
			errs = append(errs, fmt.Errorf("remove default route: %w", err))
		}
		t.routeSet = false
	}
	if t.pinnedServer {
		if err := t.exec.Run("ip", "route", "del", t.serverIP+"/32"); err != nil {
			errs = append(errs, fmt.Errorf("remove server route: %w", err))
		}
		t.pinnedServer = false
	}
	if t.bridge != nil {
		t.bridge.Stop()
		t.bridge = nil
	}
	if t.deviceUp {
		if err := t.exec.Run("ip", "link", "set", "dev", t.Device, "down"); err != nil {
			errs = append(errs, fmt.Errorf("link down: %w", err))
		}
		t.deviceUp = false
	}
	if err := t.exec.Run("ip", "tuntap", "del", "mode", "tun", "dev", t.Device); err != nil {
		errs = append(errs, fmt.Errorf("delete device: %w", err))
	}

	return errs
}

// resolveIPv4 resolves a hostname to its first IPv4 address. Resolution
// failure falls back to the raw input so a literal address still works.
func resolveIPv4(host string) string {
	if ip := net.ParseIP(host); ip != nil {
		return host
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return host
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return host
}
