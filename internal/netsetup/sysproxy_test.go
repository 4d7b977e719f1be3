package netsetup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemProxySetup_WritesEnvFile(t *testing.T) {
	strat := NewSystemProxyStrategy(10809, 10808)
	strat.FilePath = filepath.Join(t.TempDir(), "proxy.sh")

	require.NoError(t, strat.Setup())

	data, err := os.ReadFile(strat.FilePath)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `export http_proxy="http://127.0.0.1:10809"`)
	assert.Contains(t, content, `export HTTPS_PROXY="http://127.0.0.1:10809"`)
	assert.Contains(t, content, `export all_proxy="socks5://127.0.0.1:10808"`)
	assert.Contains(t, content, `export ALL_PROXY="socks5://127.0.0.1:10808"`)

	info, err := os.Stat(strat.FilePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestSystemProxyTeardown_RemovesFile(t *testing.T) {
	strat := NewSystemProxyStrategy(10809, 10808)
	strat.FilePath = filepath.Join(t.TempDir(), "proxy.sh")

	require.NoError(t, strat.Setup())
	assert.Empty(t, strat.Teardown())

	_, err := os.Stat(strat.FilePath)
	assert.True(t, os.IsNotExist(err))
}

func TestSystemProxyTeardown_MissingFileIsFine(t *testing.T) {
	strat := NewSystemProxyStrategy(10809, 10808)
	strat.FilePath = filepath.Join(t.TempDir(), "proxy.sh")

	assert.Empty(t, strat.Teardown())
	assert.Empty(t, strat.Teardown())
}
