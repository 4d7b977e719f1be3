package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"v2deck/internal/profile"
	"v2deck/internal/settings"
)

// Generate builds the engine config document for a profile. It is a pure
// function: no I/O, no process state. Unknown transport or security values
// fail generation outright; an empty default block would silently produce a
// tunnel with no framing or no encryption.
func Generate(p *profile.Profile, s settings.Settings, logDir string) (*Document, error) {
	stream, err := buildStream(p, s)
	if err != nil {
		return nil, err
	}

	user := VnextUser{
		ID:         p.UUID,
		Encryption: p.Encryption,
		Flow:       p.Flow,
	}

	proxy := Outbound{
		Protocol: "vless",
		Settings: &OutboundSettings{
			Vnext: []VnextServer{{
				Address: p.Address,
				Port:    p.Port,
				Users:   []VnextUser{user},
			}},
		},
		StreamSettings: stream,
		Tag:            "proxy",
	}

	if s.MuxEnabled {
		proxy.Mux = &MuxSettings{Enabled: true, Concurrency: s.MuxConcurrency}
	}

	return &Document{
		Log: LogConfig{
			Loglevel: s.LogLevel,
			Access:   filepath.Join(logDir, "xray-access.log"),
			Error:    filepath.Join(logDir, "xray-error.log"),
		},
		DNS: DNSConfig{
			Servers: []string{s.CustomDNS, "localhost"},
		},
		// Both listeners are loopback-only; binding wider would expose the
		// proxy to the local network.
		Inbounds: []Inbound{
			{
				Listen:   "127.0.0.1",
				Port:     s.SocksPort,
				Protocol: "socks",
				Settings: &InboundSettings{UDP: true},
				Tag:      "socks-in",
			},
			{
				Listen:   "127.0.0.1",
				Port:     s.HTTPPort,
				Protocol: "http",
				Tag:      "http-in",
			},
		},
		Outbounds: []Outbound{
			proxy,
			{Protocol: "freedom", Tag: "direct"},
			{Protocol: "blackhole", Tag: "block"},
		},
		Routing: Routing{
			DomainStrategy: s.DomainStrategy,
			Rules:          buildRules(s),
		},
	}, nil
}

func buildStream(p *profile.Profile, s settings.Settings) (*StreamSettings, error) {
	stream := &StreamSettings{
		Network:  string(p.Network),
		Security: string(p.Security),
	}

	switch p.Security {
	case profile.SecurityNone:
		// no security block
	case profile.SecurityReality:
		stream.RealitySettings = &RealitySettings{
			ServerName:  p.Reality.SNI,
			Fingerprint: p.Reality.Fingerprint,
			PublicKey:   p.Reality.PublicKey,
			ShortID:     p.Reality.ShortID,
			SpiderX:     p.Reality.SpiderX,
		}
	case profile.SecurityTLS:
		tls := &TLSSettings{
			ServerName:  p.TLS.SNI,
			Fingerprint: p.TLS.Fingerprint,
			// The global override can force insecure on; it never forces a
			// profile that asked for insecure back to strict.
			AllowInsecure: s.AllowInsecure || p.TLS.AllowInsecure,
		}
		if p.TLS.ALPN != "" {
			tls.ALPN = strings.Split(p.TLS.ALPN, ",")
		}
		stream.TLSSettings = tls
	default:
		return nil, fmt.Errorf("%w: %q", profile.ErrUnsupportedSecurity, p.Security)
	}

	switch p.Network {
	case profile.NetworkTCP:
		// raw stream, no transport block
	case profile.NetworkWS:
		ws := &WSSettings{Path: p.WS.Path}
		if p.WS.Host != "" {
			ws.Headers = map[string]string{"Host": p.WS.Host}
		}
		stream.WSSettings = ws
	case profile.NetworkGRPC:
		stream.GRPCSettings = &GRPCSettings{
			ServiceName: p.GRPC.ServiceName,
			MultiMode:   p.GRPC.Mode == "multi",
		}
	case profile.NetworkHTTP:
		http := &HTTPSettings{Path: p.HTTP.Path}
		if p.HTTP.Host != "" {
			http.Host = []string{p.HTTP.Host}
		}
		stream.HTTPSettings = http
	case profile.NetworkQUIC:
		stream.QUICSettings = &QUICSettings{
			Security: p.QUIC.Security,
			Key:      p.QUIC.Key,
			Header:   Header{Type: p.QUIC.Header},
		}
	case profile.NetworkKCP:
		stream.KCPSettings = &KCPSettings{
			Header: Header{Type: p.KCP.Header},
			Seed:   p.KCP.Seed,
		}
	case profile.NetworkHTTPUpgrade:
		stream.HTTPUpgradeSettings = &HTTPUpgradeSettings{
			Path: p.HTTPUpgrade.Path,
			Host: p.HTTPUpgrade.Host,
		}
	case profile.NetworkSplitHTTP:
		stream.SplitHTTPSettings = &SplitHTTPSettings{
			Path: p.SplitHTTP.Path,
			Host: p.SplitHTTP.Host,
		}
	default:
		return nil, fmt.Errorf("%w: %q", profile.ErrUnsupportedTransport, p.Network)
	}

	return stream, nil
}

// buildRules assembles routing rules in fixed priority order: LAN bypass,
// then ad blocking, then CN bypass. Disabled rules are omitted entirely.
func buildRules(s settings.Settings) []Rule {
	rules := []Rule{}
	if s.BypassLAN {
		rules = append(rules, Rule{
			Type:        "field",
			IP:          []string{"geoip:private"},
			OutboundTag: "direct",
		})
	}
	if s.BlockAds {
		rules = append(rules, Rule{
			Type:        "field",
			Domain:      []string{"geosite:category-ads-all"},
			OutboundTag: "block",
		})
	}
	if s.BypassCN {
		rules = append(rules,
			Rule{
				Type:        "field",
				Domain:      []string{"geosite:cn"},
				OutboundTag: "direct",
			},
			Rule{
				Type:        "field",
				IP:          []string{"geoip:cn"},
				OutboundTag: "direct",
			},
		)
	}
	return rules
}
