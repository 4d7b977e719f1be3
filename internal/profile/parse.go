package profile

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrMalformedURI      = errors.New("malformed vless uri")
	ErrMalformedEndpoint = errors.New("malformed endpoint")
)

// FromURI parses a vless://uuid@address:port?params#name descriptor.
// Every query parameter is optional; absent ones fall back to the documented
// defaults so partial URIs still decode.
func FromURI(raw string) (*Profile, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(raw), "vless://") {
		return nil, fmt.Errorf("%w: missing vless:// scheme", ErrMalformedURI)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURI, err)
	}

	// Hostname() strips the brackets from a literal IPv6 authority.
	address := u.Hostname()
	if address == "" {
		return nil, fmt.Errorf("%w: no address", ErrMalformedEndpoint)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: bad port %q", ErrMalformedEndpoint, u.Port())
	}

	p := &Profile{
		Name:    u.Fragment,
		UUID:    u.User.String(),
		Address: address,
		Port:    port,
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("%s:%d", p.Address, p.Port)
	}

	q := u.Query()

	p.Encryption = getOr(q, "encryption", "none")
	p.Flow = q.Get("flow")

	p.Network, err = ParseNetwork(getOr(q, "type", "tcp"))
	if err != nil {
		return nil, err
	}
	p.Security, err = ParseSecurity(getOr(q, "security", "none"))
	if err != nil {
		return nil, err
	}

	// sni with serverName as a legacy fallback
	sni := q.Get("sni")
	if sni == "" {
		sni = q.Get("serverName")
	}
	fingerprint := getOr(q, "fp", "chrome")

	p.TLS = TLSOptions{
		SNI:           sni,
		Fingerprint:   fingerprint,
		ALPN:          q.Get("alpn"),
		AllowInsecure: parseBool(q, "allowInsecure", "insecure", "allow_insecure"),
	}
	p.Reality = RealityOptions{
		SNI:         sni,
		Fingerprint: fingerprint,
		PublicKey:   q.Get("pbk"),
		ShortID:     q.Get("sid"),
		SpiderX:     getOr(q, "spx", "/"),
	}

	path := getOr(q, "path", "/")
	host := q.Get("host")

	p.WS = WSOptions{Path: path, Host: host}
	p.HTTP = HTTPOptions{Path: path, Host: host}
	p.HTTPUpgrade = HTTPUpgradeOptions{Path: path, Host: host}
	p.SplitHTTP = SplitHTTPOptions{Path: path, Host: host}
	p.GRPC = GRPCOptions{
		ServiceName: q.Get("serviceName"),
		Mode:        getOr(q, "mode", "gun"),
	}
	p.QUIC = QUICOptions{
		Security: getOr(q, "quicSecurity", "none"),
		Key:      q.Get("key"),
		Header:   getOr(q, "headerType", "none"),
	}
	p.KCP = KCPOptions{
		Seed:   q.Get("seed"),
		Header: getOr(q, "headerType", "none"),
	}

	return p, nil
}

func getOr(q url.Values, key, def string) string {
	if v := q.Get(key); v != "" {
		return v
	}
	return def
}

// parseBool accepts the 1/0/true/false spellings under any of the given keys.
func parseBool(q url.Values, keys ...string) bool {
	for _, key := range keys {
		if v := q.Get(key); v != "" {
			return v == "1" || v == "true"
		}
	}
	return false
}
