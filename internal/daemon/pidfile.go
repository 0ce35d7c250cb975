package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

var (
	// ErrPIDFileNotFound is returned when no PID file exists.
	ErrPIDFileNotFound = errors.New("PID file not found")

	// ErrNotRunning is returned by Stop when the PID file is missing or
	// names a process that has exited.
	ErrNotRunning = errors.New("twsync is not running")
)

// PIDFile records the PID of the running 'twsync start' so that 'stop' and
// 'status' can find it.
type PIDFile struct {
	path string
}

// NewPIDFile returns the PID file at path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Write records the current PID. The file is replaced atomically so a
// concurrent Read never sees a partial value.
func (p *PIDFile) Write() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Read returns the recorded PID without checking that it is alive.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ErrPIDFileNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID file %s: %q", p.path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// Remove deletes the PID file. A missing file is not an error.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Running returns the recorded PID if that process is still alive. A stale
// or unreadable file reports false.
func (p *PIDFile) Running() (int, bool) {
	pid, err := p.Read()
	if err != nil || !alive(pid) {
		return 0, false
	}
	return pid, true
}

// Stop sends SIGTERM to the running synchronizer, which finishes the sync
// in progress and exits. It returns the signalled PID.
func (p *PIDFile) Stop() (int, error) {
	pid, ok := p.Running()
	if !ok {
		return 0, ErrNotRunning
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return pid, fmt.Errorf("failed to stop process %d: %w", pid, err)
	}
	return pid, nil
}

// alive sends signal 0 to pid. EPERM means the process exists but belongs
// to someone else.
func alive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
