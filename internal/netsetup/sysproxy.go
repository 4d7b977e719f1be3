package netsetup

import (
	"fmt"
	"os"
)

// DefaultProxyFile is where login shells pick up the exported proxy variables.
const DefaultProxyFile = "/etc/profile.d/v2deck_proxy.sh"

// SystemProxyStrategy exposes the local listeners through the conventional
// shell proxy environment variables. Nothing beyond the proxy engine itself
// is supervised in this mode.
type SystemProxyStrategy struct {
	FilePath  string
	HTTPPort  int
	SocksPort int
}

func NewSystemProxyStrategy(httpPort, socksPort int) *SystemProxyStrategy {
	return &SystemProxyStrategy{
		FilePath:  DefaultProxyFile,
		HTTPPort:  httpPort,
		SocksPort: socksPort,
	}
}

func (s *SystemProxyStrategy) Setup() error {
	content := fmt.Sprintf(`#!/bin/bash
export http_proxy="http://127.0.0.1:%[1]d"
export https_proxy="http://127.0.0.1:%[1]d"
export HTTP_PROXY="http://127.0.0.1:%[1]d"
export HTTPS_PROXY="http://127.0.0.1:%[1]d"
export all_proxy="socks5://127.0.0.1:%[2]d"
export ALL_PROXY="socks5://127.0.0.1:%[2]d"
`, s.HTTPPort, s.SocksPort)

	if err := os.WriteFile(s.FilePath, []byte(content), 0644); err != nil {
		return fmt.Errorf("%w: write proxy env file: %v", ErrNetworkSetupFailed, err)
	}
	return nil
}

func (s *SystemProxyStrategy) Teardown() []error {
	if err := os.Remove(s.FilePath); err != nil && !os.IsNotExist(err) {
		return []error{fmt.Errorf("remove proxy env file: %w", err)}
	}
	return nil
}
