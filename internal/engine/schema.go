package engine

// Config document schema for the external xray engine. Field names follow
// the engine's JSON config format exactly; omitted optional blocks must be
// absent from the output, not present-but-empty.

type Document struct {
	Log       LogConfig  `json:"log"`
	DNS       DNSConfig  `json:"dns"`
	Inbounds  []Inbound  `json:"inbounds"`
	Outbounds []Outbound `json:"outbounds"`
	Routing   Routing    `json:"routing"`
}

type LogConfig struct {
	Loglevel string `json:"loglevel"`
	Access   string `json:"access"`
	Error    string `json:"error"`
}

type DNSConfig struct {
	Servers []string `json:"servers"`
}

type Inbound struct {
	Listen   string           `json:"listen"`
	Port     int              `json:"port"`
	Protocol string           `json:"protocol"`
	Settings *InboundSettings `json:"settings,omitempty"`
	Tag      string           `json:"tag"`
}

type InboundSettings struct {
	UDP bool `json:"udp"`
}

type Outbound struct {
	Protocol       string            `json:"protocol"`
	Settings       *OutboundSettings `json:"settings,omitempty"`
	StreamSettings *StreamSettings   `json:"streamSettings,omitempty"`
	Mux            *MuxSettings      `json:"mux,omitempty"`
	Tag            string            `json:"tag"`
}

type OutboundSettings struct {
	Vnext []VnextServer `json:"vnext"`
}

type VnextServer struct {
	Address string      `json:"address"`
	Port    int         `json:"port"`
	Users   []VnextUser `json:"users"`
}

type VnextUser struct {
	ID         string `json:"id"`
	Encryption string `json:"encryption"`
	Flow       string `json:"flow,omitempty"`
}

type MuxSettings struct {
	Enabled     bool `json:"enabled"`
	Concurrency int  `json:"concurrency"`
}

type StreamSettings struct {
	Network  string `json:"network"`
	Security string `json:"security"`

	TLSSettings     *TLSSettings     `json:"tlsSettings,omitempty"`
	RealitySettings *RealitySettings `json:"realitySettings,omitempty"`

	WSSettings          *WSSettings          `json:"wsSettings,omitempty"`
	GRPCSettings        *GRPCSettings        `json:"grpcSettings,omitempty"`
	HTTPSettings        *HTTPSettings        `json:"httpSettings,omitempty"`
	QUICSettings        *QUICSettings        `json:"quicSettings,omitempty"`
	KCPSettings         *KCPSettings         `json:"kcpSettings,omitempty"`
	HTTPUpgradeSettings *HTTPUpgradeSettings `json:"httpupgradeSettings,omitempty"`
	SplitHTTPSettings   *SplitHTTPSettings   `json:"splithttpSettings,omitempty"`
}

type TLSSettings struct {
	ServerName    string   `json:"serverName"`
	Fingerprint   string   `json:"fingerprint"`
	AllowInsecure bool     `json:"allowInsecure"`
	ALPN          []string `json:"alpn,omitempty"`
}

type RealitySettings struct {
	ServerName  string `json:"serverName"`
	Fingerprint string `json:"fingerprint"`
	PublicKey   string `json:"publicKey"`
	ShortID     string `json:"shortId"`
	SpiderX     string `json:"spiderX"`
}

type WSSettings struct {
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
}

type GRPCSettings struct {
	ServiceName string `json:"serviceName"`
	MultiMode   bool   `json:"multiMode"`
}

type HTTPSettings struct {
	Path string   `json:"path"`
	Host []string `json:"host,omitempty"`
}

type Header struct {
	Type string `json:"type"`
}

type QUICSettings struct {
	Security string `json:"security"`
	Key      string `json:"key"`
	Header   Header `json:"header"`
}

type KCPSettings struct {
	Header Header `json:"header"`
	Seed   string `json:"seed,omitempty"`
}

type HTTPUpgradeSettings struct {
	Path string `json:"path"`
	Host string `json:"host,omitempty"`
}

type SplitHTTPSettings struct {
	Path string `json:"path"`
	Host string `json:"host,omitempty"`
}

type Routing struct {
	DomainStrategy string `json:"domainStrategy"`
	Rules          []Rule `json:"rules"`
}

type Rule struct {
	Type        string   `json:"type"`
	IP          []string `json:"ip,omitempty"`
	Domain      []string `json:"domain,omitempty"`
	OutboundTag string   `json:"outboundTag"`
}
