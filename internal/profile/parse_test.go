package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUUID = "11111111-2222-3333-4444-555555555555"

func TestFromURI_WSWithTLS(t *testing.T) {
	uri := "vless://" + testUUID + "@example.com:443?type=ws&security=tls&sni=example.com&path=%2Fws#MyServer"

	p, err := FromURI(uri)
	require.NoError(t, err)

	assert.Equal(t, "MyServer", p.Name)
	assert.Equal(t, testUUID, p.UUID)
	assert.Equal(t, "example.com", p.Address)
	assert.Equal(t, 443, p.Port)
	assert.Equal(t, NetworkWS, p.Network)
	assert.Equal(t, SecurityTLS, p.Security)
	assert.Equal(t, "/ws", p.WS.Path)
	assert.Equal(t, "example.com", p.TLS.SNI)
	assert.Equal(t, "chrome", p.TLS.Fingerprint)
}

func TestFromURI_Defaults(t *testing.T) {
	p, err := FromURI("vless://" + testUUID + "@1.2.3.4:443")
	require.NoError(t, err)

	assert.Equal(t, "1.2.3.4:443", p.Name, "name defaults to address:port")
	assert.Equal(t, NetworkTCP, p.Network)
	assert.Equal(t, SecurityNone, p.Security)
	assert.Equal(t, "none", p.Encryption)
	assert.Equal(t, "/", p.WS.Path)
	assert.Equal(t, "gun", p.GRPC.Mode)
	assert.Equal(t, "none", p.QUIC.Header)
	assert.Equal(t, "none", p.KCP.Header)
	assert.Equal(t, "/", p.Reality.SpiderX)
	assert.False(t, p.TLS.AllowInsecure)
}

func TestFromURI_IPv6Literal(t *testing.T) {
	p, err := FromURI("vless://" + testUUID + "@[2001:db8::1]:8443?type=grpc&serviceName=svc")
	require.NoError(t, err)

	assert.Equal(t, "2001:db8::1", p.Address)
	assert.Equal(t, 8443, p.Port)
	assert.Equal(t, NetworkGRPC, p.Network)
	assert.Equal(t, "svc", p.GRPC.ServiceName)
}

func TestFromURI_Reality(t *testing.T) {
	p, err := FromURI("vless://" + testUUID +
		"@example.com:443?security=reality&sni=cdn.example.com&fp=firefox&pbk=pubkey&sid=ab12&spx=%2Fspider&flow=xtls-rprx-vision")
	require.NoError(t, err)

	assert.Equal(t, SecurityReality, p.Security)
	assert.Equal(t, "cdn.example.com", p.Reality.SNI)
	assert.Equal(t, "firefox", p.Reality.Fingerprint)
	assert.Equal(t, "pubkey", p.Reality.PublicKey)
	assert.Equal(t, "ab12", p.Reality.ShortID)
	assert.Equal(t, "/spider", p.Reality.SpiderX)
	assert.Equal(t, "xtls-rprx-vision", p.Flow)
}

func TestFromURI_AllowInsecureSpellings(t *testing.T) {
	for _, param := range []string{"allowInsecure=1", "allowInsecure=true", "insecure=1", "allow_insecure=true"} {
		p, err := FromURI("vless://" + testUUID + "@h:443?security=tls&" + param)
		require.NoError(t, err, param)
		assert.True(t, p.TLS.AllowInsecure, param)
	}

	p, err := FromURI("vless://" + testUUID + "@h:443?security=tls&allowInsecure=0")
	require.NoError(t, err)
	assert.False(t, p.TLS.AllowInsecure)
}

func TestFromURI_Errors(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want error
	}{
		{"missing scheme", testUUID + "@example.com:443", ErrMalformedURI},
		{"wrong scheme", "trojan://pw@example.com:443", ErrMalformedURI},
		{"no port", "vless://" + testUUID + "@example.com", ErrMalformedEndpoint},
		{"port out of range", "vless://" + testUUID + "@example.com:70000", ErrMalformedEndpoint},
		{"no address", "vless://" + testUUID + "@:443", ErrMalformedEndpoint},
		{"unknown transport", "vless://" + testUUID + "@h:443?type=carrierpigeon", ErrUnsupportedTransport},
		{"unknown security", "vless://" + testUUID + "@h:443?security=rot13", ErrUnsupportedSecurity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromURI(tt.uri)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFromURI_H2Alias(t *testing.T) {
	p, err := FromURI("vless://" + testUUID + "@h:443?type=h2&path=%2Fh2")
	require.NoError(t, err)
	assert.Equal(t, NetworkHTTP, p.Network)
	assert.Equal(t, "/h2", p.HTTP.Path)
}

func TestRoundTrip_CoreFields(t *testing.T) {
	uris := []string{
		"vless://" + testUUID + "@example.com:443?type=ws&security=tls&sni=example.com&path=%2Fws#MyServer",
		"vless://" + testUUID + "@1.2.3.4:8080?type=grpc&serviceName=svc&mode=multi&security=reality&pbk=k&sid=s#grpc-node",
		"vless://" + testUUID + "@[2001:db8::1]:443#v6",
		"vless://" + testUUID + "@kcp.example.com:2098?type=kcp&seed=abc&headerType=wechat-video#kcp",
	}

	for _, uri := range uris {
		orig, err := FromURI(uri)
		require.NoError(t, err, uri)

		back, err := FromURI(orig.ToURI())
		require.NoError(t, err, "re-decoding %s", orig.ToURI())

		assert.Equal(t, orig.Address, back.Address)
		assert.Equal(t, orig.Port, back.Port)
		assert.Equal(t, orig.UUID, back.UUID)
		assert.Equal(t, orig.Network, back.Network)
		assert.Equal(t, orig.Security, back.Security)
		assert.Equal(t, orig.Name, back.Name)
	}
}
