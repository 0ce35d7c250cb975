package daemon

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	twerrors "github.com/Aman-CERP/twsync/internal/errors"
)

const (
	lockFileName = "twsync.lock"
	pidFileName  = "twsync.pid"
)

// StateDir returns the directory holding the lock and PID files
// (~/.local/share/twsync, or $XDG_DATA_HOME/twsync).
func StateDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "twsync")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "twsync")
	}
	return filepath.Join(home, ".local", "share", "twsync")
}

// PIDPath returns the PID file path inside dir.
func PIDPath(dir string) string {
	return filepath.Join(dir, pidFileName)
}

// Instance is a running synchronizer that owns the state directory.
type Instance struct {
	lock *FileLock
	pid  *PIDFile
}

// Acquire takes the instance lock in dir and writes the PID file.
// Fails with ERR_502 when another synchronizer holds the lock.
func Acquire(dir string) (*Instance, error) {
	lock := NewFileLock(filepath.Join(dir, lockFileName))
	pid := NewPIDFile(PIDPath(dir))

	ok, err := lock.TryLock()
	if err != nil {
		return nil, twerrors.InternalError("cannot lock state directory", err)
	}
	if !ok {
		e := twerrors.New(twerrors.ErrCodeAlreadyRunning, "twsync is already running", nil).
			WithDetail("lock", lock.Path()).
			WithSuggestion("Stop it with 'twsync stop' first")
		if running, rerr := pid.Read(); rerr == nil {
			e = e.WithDetail("pid", strconv.Itoa(running))
		}
		return nil, e
	}

	if err := pid.Write(); err != nil {
		_ = lock.Unlock()
		return nil, twerrors.InternalError("cannot write PID file", err)
	}

	slog.Debug("Instance lock acquired", slog.String("lock", lock.Path()), slog.Int("pid", os.Getpid()))
	return &Instance{lock: lock, pid: pid}, nil
}

// PIDFile returns the instance's PID file.
func (i *Instance) PIDFile() *PIDFile {
	return i.pid
}

// Release removes the PID file and drops the lock.
func (i *Instance) Release() error {
	if err := i.pid.Remove(); err != nil {
		slog.Warn("Failed to remove PID file", slog.String("error", err.Error()))
	}
	return i.lock.Unlock()
}
