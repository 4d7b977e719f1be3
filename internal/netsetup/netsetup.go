// Package netsetup wires outbound traffic through the locally running proxy.
// Two mutually exclusive strategies exist: TUN mode redirects the default
// route through a virtual interface bridged to the SOCKS listener, system
// mode exports shell proxy environment variables.
package netsetup

import (
	"errors"
	"os/exec"
	"time"
)

var ErrNetworkSetupFailed = errors.New("network setup failed")

// Strategy makes outbound traffic flow through the local proxy and fully
// reverses that change. Teardown is best-effort: every step runs regardless
// of earlier failures, and the collected errors are surfaced as warnings. A
// half-applied network state is worse than a loud error.
type Strategy interface {
	Setup() error
	Teardown() []error
}

// Executor abstracts privileged command execution so routing mutations can
// be verified in tests.
type Executor interface {
	Run(name string, args ...string) error
	Output(name string, args ...string) ([]byte, error)
}

type osExec struct{}

func (osExec) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (osExec) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// Bridge is the supervised TUN bridging helper process.
type Bridge interface {
	Probe(grace time.Duration) error
	Stop()
}

// StartFunc launches a bridging helper executable.
type StartFunc func(path string, args ...string) (Bridge, error)
