package profile

import (
	"net"
	"net/url"
	"strconv"
)

// ToURI projects the profile back into its descriptor form. Defaults are
// omitted so the output stays close to what was originally imported.
// JoinHostPort brackets literal IPv6 addresses.
func (p *Profile) ToURI() string {
	u := url.URL{
		Scheme:   "vless",
		User:     url.User(p.UUID),
		Host:     net.JoinHostPort(p.Address, strconv.Itoa(p.Port)),
		Fragment: p.Name,
	}

	q := u.Query()

	if p.Network != "" && p.Network != NetworkTCP {
		q.Set("type", string(p.Network))
	}
	if p.Security != "" && p.Security != SecurityNone {
		q.Set("security", string(p.Security))
	}
	if p.Encryption != "" && p.Encryption != "none" {
		q.Set("encryption", p.Encryption)
	}
	if p.Flow != "" {
		q.Set("flow", p.Flow)
	}

	switch p.Security {
	case SecurityTLS:
		if p.TLS.SNI != "" {
			q.Set("sni", p.TLS.SNI)
		}
		if p.TLS.Fingerprint != "" {
			q.Set("fp", p.TLS.Fingerprint)
		}
		if p.TLS.ALPN != "" {
			q.Set("alpn", p.TLS.ALPN)
		}
		if p.TLS.AllowInsecure {
			q.Set("allowInsecure", "1")
		}
	case SecurityReality:
		if p.Reality.SNI != "" {
			q.Set("sni", p.Reality.SNI)
		}
		if p.Reality.Fingerprint != "" {
			q.Set("fp", p.Reality.Fingerprint)
		}
		if p.Reality.PublicKey != "" {
			q.Set("pbk", p.Reality.PublicKey)
		}
		if p.Reality.ShortID != "" {
			q.Set("sid", p.Reality.ShortID)
		}
		if p.Reality.SpiderX != "" && p.Reality.SpiderX != "/" {
			q.Set("spx", p.Reality.SpiderX)
		}
	}

	switch p.Network {
	case NetworkWS:
		setPathHost(q, p.WS.Path, p.WS.Host)
	case NetworkHTTP:
		setPathHost(q, p.HTTP.Path, p.HTTP.Host)
	case NetworkHTTPUpgrade:
		setPathHost(q, p.HTTPUpgrade.Path, p.HTTPUpgrade.Host)
	case NetworkSplitHTTP:
		setPathHost(q, p.SplitHTTP.Path, p.SplitHTTP.Host)
	case NetworkGRPC:
		if p.GRPC.ServiceName != "" {
			q.Set("serviceName", p.GRPC.ServiceName)
		}
		if p.GRPC.Mode != "" && p.GRPC.Mode != "gun" {
			q.Set("mode", p.GRPC.Mode)
		}
	case NetworkQUIC:
		if p.QUIC.Security != "" && p.QUIC.Security != "none" {
			q.Set("quicSecurity", p.QUIC.Security)
		}
		if p.QUIC.Key != "" {
			q.Set("key", p.QUIC.Key)
		}
		if p.QUIC.Header != "" && p.QUIC.Header != "none" {
			q.Set("headerType", p.QUIC.Header)
		}
	case NetworkKCP:
		if p.KCP.Seed != "" {
			q.Set("seed", p.KCP.Seed)
		}
		if p.KCP.Header != "" && p.KCP.Header != "none" {
			q.Set("headerType", p.KCP.Header)
		}
	}

	u.RawQuery = q.Encode()
	return u.String()
}

func setPathHost(q url.Values, path, host string) {
	if path != "" && path != "/" {
		q.Set("path", path)
	}
	if host != "" {
		q.Set("host", host)
	}
}
