package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"golang.org/x/net/proxy"

	"v2deck/internal/config"
	"v2deck/internal/geoip"
)

// Checker probes connectivity and public-IP identity, either directly or
// through the local SOCKS listener.
type Checker struct {
	cfg config.CheckerConfig
}

func New(cfg config.CheckerConfig) *Checker {
	return &Checker{cfg: cfg}
}

// TestConnection fetches the configured test URL through the SOCKS listener
// and reports whether the tunnel passes real traffic.
func (c *Checker) TestConnection(socksPort int) error {
	client, err := c.proxyClient(socksPort)
	if err != nil {
		return err
	}

	resp, err := client.Get(c.cfg.TestURL)
	if err != nil {
		return fmt.Errorf("connectivity test failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return fmt.Errorf("connectivity test failed: HTTP %d", resp.StatusCode)
	}
	return nil
}

// IPInfo is the public identity seen by the echo service, enriched with
// GeoIP metadata when databases are available.
type IPInfo struct {
	IP      string `json:"ip"`
	ISP     string `json:"isp,omitempty"`
	Country string `json:"country,omitempty"`
}

// PublicIP resolves the visible egress IP, optionally through the proxy.
func (c *Checker) PublicIP(socksPort int, viaProxy bool) (*IPInfo, error) {
	client := &http.Client{Timeout: c.cfg.Timeout}
	if viaProxy {
		var err error
		if client, err = c.proxyClient(socksPort); err != nil {
			return nil, err
		}
	}

	resp, err := client.Get(c.cfg.EchoURL)
	if err != nil {
		return nil, fmt.Errorf("echo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var info IPInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("unexpected echo response: %w", err)
	}
	if info.IP == "" {
		return nil, fmt.Errorf("empty response from echo service")
	}

	if geo, err := geoip.Lookup(info.IP); err == nil {
		info.ISP = geo.ISP
		info.Country = geo.Country
	}

	return &info, nil
}

func (c *Checker) proxyClient(socksPort int) (*http.Client, error) {
	dialer, err := proxy.SOCKS5("tcp", fmt.Sprintf("127.0.0.1:%d", socksPort), nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to build socks dialer: %w", err)
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
		ResponseHeaderTimeout: c.cfg.Timeout,
	}

	return &http.Client{Transport: transport, Timeout: c.cfg.Timeout}, nil
}
