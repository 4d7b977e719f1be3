package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "My_Server_1", SanitizeName("My Server/1"))
	assert.Equal(t, "plain-name_v2.0", SanitizeName("plain-name_v2.0"))
	assert.Equal(t, "a_b_c", SanitizeName("a b c"))
	assert.Equal(t, ".._.._x", SanitizeName("../../x"), "separators never survive")
}

func TestStore_SaveLoadDelete(t *testing.T) {
	store := NewStore(t.TempDir())

	p := &Profile{
		Name:     "My Server #1",
		UUID:     testUUID,
		Address:  "example.com",
		Port:     443,
		Network:  NetworkWS,
		Security: SecurityTLS,
		WS:       WSOptions{Path: "/ws"},
		TLS:      TLSOptions{SNI: "example.com"},
	}
	require.NoError(t, store.Save(p))

	loaded, err := store.Load("My Server #1")
	require.NoError(t, err)
	assert.Equal(t, p, loaded)

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "My Server #1", list[0].Name)

	require.NoError(t, store.Delete("My Server #1"))
	_, err = store.Load("My Server #1")
	assert.Error(t, err)

	// deleting again is a no-op
	assert.NoError(t, store.Delete("My Server #1"))
}

func TestStore_FilenameIsSanitized(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.Save(&Profile{
		Name: "weird/name with spaces", UUID: testUUID,
		Address: "h", Port: 1, Network: NetworkTCP, Security: SecurityNone,
	}))

	_, err := os.Stat(filepath.Join(dir, "weird_name_with_spaces.json"))
	assert.NoError(t, err)
}

func TestStore_ListSkipsGarbage(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	require.NoError(t, store.Save(&Profile{
		Name: "good", UUID: testUUID,
		Address: "h", Port: 1, Network: NetworkTCP, Security: SecurityNone,
	}))

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_ListEmptyDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing"))
	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
