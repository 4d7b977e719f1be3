package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() *Profile {
	return &Profile{
		Name:       "test",
		UUID:       testUUID,
		Address:    "example.com",
		Port:       443,
		Encryption: "none",
		Network:    NetworkTCP,
		Security:   SecurityNone,
	}
}

func TestValidate_AcceptsCanonicalUUID(t *testing.T) {
	require.NoError(t, validProfile().Validate())
}

func TestValidate_RejectsNonCanonicalUUID(t *testing.T) {
	// The engine would silently derive a UUID from any of these; a profile
	// carrying them almost certainly holds a mangled credential.
	for _, bad := range []string{
		"",
		"not-a-uuid",
		"11111111222233334444555555555555",     // no dashes
		testUUID + "5",                         // too long
		"g1111111-2222-3333-4444-555555555555", // non-hex
	} {
		p := validProfile()
		p.UUID = bad
		assert.Error(t, p.Validate(), "uuid %q", bad)
	}
}

func TestValidate_FieldChecks(t *testing.T) {
	p := validProfile()
	p.Address = ""
	assert.Error(t, p.Validate())

	p = validProfile()
	p.Port = 0
	assert.Error(t, p.Validate())

	p = validProfile()
	p.Port = 70000
	assert.Error(t, p.Validate())

	p = validProfile()
	p.Network = "carrierpigeon"
	assert.ErrorIs(t, p.Validate(), ErrUnsupportedTransport)

	p = validProfile()
	p.Security = "rot13"
	assert.ErrorIs(t, p.Validate(), ErrUnsupportedSecurity)
}
