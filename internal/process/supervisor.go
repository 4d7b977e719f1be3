package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"v2deck/internal/logger"
)

var (
	ErrBinaryMissing      = errors.New("binary missing")
	ErrProcessStartFailed = errors.New("process start failed")
)

// stderrLimit bounds how much of a crashed process's stderr is surfaced.
const stderrLimit = 200

// Handle owns a supervised external process. The process is started as the
// leader of its own group so the whole group, including any children it
// spawns, can be signalled as a unit on teardown.
type Handle struct {
	cmd    *exec.Cmd
	stderr *boundedBuffer
	done   chan struct{}

	stopOnce sync.Once
}

// Start launches the executable detached into a new process group.
func Start(path string, args ...string) (*Handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBinaryMissing, path)
	}
	if info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return nil, fmt.Errorf("%w: %s is not executable", ErrBinaryMissing, path)
	}

	h := &Handle{
		stderr: newBoundedBuffer(4096),
		done:   make(chan struct{}),
	}

	cmd := exec.Command(path, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = h.stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessStartFailed, err)
	}
	h.cmd = cmd

	go func() {
		_ = cmd.Wait()
		close(h.done)
	}()

	logger.Log.Debugf("started %s (pid %d)", path, cmd.Process.Pid)
	return h, nil
}

// Probe waits out a short grace period and reports ErrProcessStartFailed,
// carrying captured stderr, if the process already exited.
func (h *Handle) Probe(grace time.Duration) error {
	select {
	case <-h.done:
		detail := h.stderr.Head(stderrLimit)
		if detail == "" {
			detail = "exited immediately"
		}
		return fmt.Errorf("%w: %s", ErrProcessStartFailed, detail)
	case <-time.After(grace):
		return nil
	}
}

// Alive reports whether the process is still running.
func (h *Handle) Alive() bool {
	if h == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Pid returns the group leader pid.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Stop signals SIGTERM to the entire process group. It is idempotent and
// tolerates the group already being gone; a nil handle is a no-op.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() {
		pgid, err := syscall.Getpgid(h.cmd.Process.Pid)
		if err != nil {
			// Already reaped
			return
		}
		if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			logger.Log.Warnf("failed to signal process group %d: %v", pgid, err)
		}

		select {
		case <-h.done:
		case <-time.After(3 * time.Second):
			// Escalate; the Wait goroutine reaps whatever is left.
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		}
	})
}

// boundedBuffer keeps the first cap bytes written and drops the rest.
type boundedBuffer struct {
	mu  sync.Mutex
	buf []byte
	cap int
}

func newBoundedBuffer(capacity int) *boundedBuffer {
	return &boundedBuffer{cap: capacity}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.cap - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

// Head returns the first n captured bytes as a string.
func (b *boundedBuffer) Head(n int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) < n {
		n = len(b.buf)
	}
	return string(b.buf[:n])
}
