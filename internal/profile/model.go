package profile

import (
	"errors"
	"fmt"

	"github.com/xtls/xray-core/common/uuid"
)

var (
	ErrUnsupportedTransport = errors.New("unsupported transport")
	ErrUnsupportedSecurity  = errors.New("unsupported security")
)

// Network selects the stream framing used to reach the endpoint. It is a
// closed enumeration; anything else is rejected at parse time.
type Network string

const (
	NetworkTCP         Network = "tcp"
	NetworkWS          Network = "ws"
	NetworkGRPC        Network = "grpc"
	NetworkHTTP        Network = "http"
	NetworkQUIC        Network = "quic"
	NetworkKCP         Network = "kcp"
	NetworkHTTPUpgrade Network = "httpupgrade"
	NetworkSplitHTTP   Network = "splithttp"
)

func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case NetworkTCP, NetworkWS, NetworkGRPC, NetworkHTTP, NetworkQUIC,
		NetworkKCP, NetworkHTTPUpgrade, NetworkSplitHTTP:
		return Network(s), nil
	case "h2":
		// Alias seen in the wild for the HTTP/2 transport
		return NetworkHTTP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedTransport, s)
}

// Security selects the encryption wrapper around the transport.
type Security string

const (
	SecurityNone    Security = "none"
	SecurityTLS     Security = "tls"
	SecurityReality Security = "reality"
)

func ParseSecurity(s string) (Security, error) {
	switch Security(s) {
	case SecurityNone, SecurityTLS, SecurityReality:
		return Security(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSecurity, s)
}

// Profile is a named VLESS endpoint descriptor. Transport and security
// attribute groups live in their own option structs; only the group selected
// by Network / Security is consulted when generating engine config.
type Profile struct {
	Name       string `json:"name"`
	UUID       string `json:"uuid"`
	Address    string `json:"address"`
	Port       int    `json:"port"`
	Encryption string `json:"encryption"`
	Flow       string `json:"flow,omitempty"`

	Network  Network  `json:"network"`
	Security Security `json:"security"`

	WS          WSOptions          `json:"ws,omitempty"`
	GRPC        GRPCOptions        `json:"grpc,omitempty"`
	HTTP        HTTPOptions        `json:"http,omitempty"`
	QUIC        QUICOptions        `json:"quic,omitempty"`
	KCP         KCPOptions         `json:"kcp,omitempty"`
	HTTPUpgrade HTTPUpgradeOptions `json:"httpupgrade,omitempty"`
	SplitHTTP   SplitHTTPOptions   `json:"splithttp,omitempty"`

	TLS     TLSOptions     `json:"tls,omitempty"`
	Reality RealityOptions `json:"reality,omitempty"`
}

type WSOptions struct {
	Path string `json:"path,omitempty"`
	Host string `json:"host,omitempty"`
}

type GRPCOptions struct {
	ServiceName string `json:"service_name,omitempty"`
	Mode        string `json:"mode,omitempty"` // gun or multi
}

type HTTPOptions struct {
	Path string `json:"path,omitempty"`
	Host string `json:"host,omitempty"`
}

type QUICOptions struct {
	Security string `json:"security,omitempty"`
	Key      string `json:"key,omitempty"`
	Header   string `json:"header,omitempty"`
}

type KCPOptions struct {
	Seed   string `json:"seed,omitempty"`
	Header string `json:"header,omitempty"`
}

type HTTPUpgradeOptions struct {
	Path string `json:"path,omitempty"`
	Host string `json:"host,omitempty"`
}

type SplitHTTPOptions struct {
	Path string `json:"path,omitempty"`
	Host string `json:"host,omitempty"`
}

type TLSOptions struct {
	SNI           string `json:"sni,omitempty"`
	Fingerprint   string `json:"fingerprint,omitempty"`
	ALPN          string `json:"alpn,omitempty"` // comma separated, split by the generator
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
}

type RealityOptions struct {
	SNI         string `json:"sni,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	PublicKey   string `json:"public_key,omitempty"`
	ShortID     string `json:"short_id,omitempty"`
	SpiderX     string `json:"spider_x,omitempty"`
}

// Validate checks the fields every other component relies on.
func (p *Profile) Validate() error {
	if p.Address == "" {
		return fmt.Errorf("profile %q has no address", p.Name)
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("profile %q has invalid port %d", p.Name, p.Port)
	}
	// The engine maps any short string to a derived UUID, so ParseString alone
	// would accept arbitrary garbage. Only the canonical 36-char form names a
	// credential unambiguously.
	if len(p.UUID) != 36 {
		return fmt.Errorf("profile %q has invalid uuid %q", p.Name, p.UUID)
	}
	if _, err := uuid.ParseString(p.UUID); err != nil {
		return fmt.Errorf("profile %q has invalid uuid: %w", p.Name, err)
	}
	if _, err := ParseNetwork(string(p.Network)); err != nil {
		return err
	}
	if _, err := ParseSecurity(string(p.Security)); err != nil {
		return err
	}
	return nil
}
