package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twerrors "github.com/Aman-CERP/twsync/internal/errors"
)

func TestFileLock_TryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "twsync.lock")

	first := NewFileLock(path)
	ok, err := first.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, first.IsLocked())

	second := NewFileLock(path)
	ok, err = second.TryLock()
	require.NoError(t, err)
	assert.False(t, ok, "lock held by another handle")
	assert.False(t, second.IsLocked())

	require.NoError(t, first.Unlock())
	ok, err = second.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Unlock())
}

func TestFileLock_UnlockTwice(t *testing.T) {
	l := NewFileLock(filepath.Join(t.TempDir(), "twsync.lock"))
	require.NoError(t, l.Unlock())

	_, err := l.TryLock()
	require.NoError(t, err)
	require.NoError(t, l.Unlock())
	require.NoError(t, l.Unlock())
}

func TestAcquire(t *testing.T) {
	dir := t.TempDir()

	inst, err := Acquire(dir)
	require.NoError(t, err)

	pid, err := inst.PIDFile().Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	_, running := NewPIDFile(PIDPath(dir)).Running()
	assert.True(t, running)

	require.NoError(t, inst.Release())
	_, err = os.Stat(PIDPath(dir))
	assert.True(t, os.IsNotExist(err))
}

func TestAcquire_AlreadyRunning(t *testing.T) {
	dir := t.TempDir()

	inst, err := Acquire(dir)
	require.NoError(t, err)
	defer func() { _ = inst.Release() }()

	_, err = Acquire(dir)
	require.Error(t, err)
	assert.Equal(t, twerrors.ErrCodeAlreadyRunning, twerrors.GetCode(err))

	var se *twerrors.SyncError
	require.ErrorAs(t, err, &se)
	assert.NotEmpty(t, se.Details["pid"])
}

func TestAcquire_AfterRelease(t *testing.T) {
	dir := t.TempDir()

	inst, err := Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, inst.Release())

	inst, err = Acquire(dir)
	require.NoError(t, err)
	require.NoError(t, inst.Release())
}

func TestStateDir(t *testing.T) {
	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/data")
		assert.Equal(t, "/data/twsync", StateDir())
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		t.Setenv("HOME", "/home/alice")
		assert.Equal(t, "/home/alice/.local/share/twsync", StateDir())
	})
}
