package cmd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/twsync/internal/daemon"
	twerrors "github.com/Aman-CERP/twsync/internal/errors"
	"github.com/Aman-CERP/twsync/internal/history"
	"github.com/Aman-CERP/twsync/internal/synclist"
	"github.com/Aman-CERP/twsync/internal/watcher"
)

func TestStartCmd_NoDirectories(t *testing.T) {
	// Given: an empty default source
	env := newTestEnv(t)
	env.writeConfig(t, "")

	// When: starting
	_, _, err := execute(t, context.Background(), "start", "--dry-run")

	// Then: nothing to sync is fatal
	require.Error(t, err)
	assert.Equal(t, twerrors.ErrCodeNoSyncRoots, twerrors.GetCode(err))
}

func TestStartCmd_AlreadyRunning(t *testing.T) {
	// Given: another instance holds the lock
	env := newTestEnv(t)
	env.mkdir(t, "foo")
	env.writeConfig(t, "")

	inst, err := daemon.Acquire(daemon.StateDir())
	require.NoError(t, err)
	defer func() { _ = inst.Release() }()

	// When: starting
	_, _, err = execute(t, context.Background(), "start", "--dry-run")

	// Then: the second instance refuses to run
	require.Error(t, err)
	assert.Equal(t, twerrors.ErrCodeAlreadyRunning, twerrors.GetCode(err))
}

func TestStartCmd_DryRunSyncsChanges(t *testing.T) {
	// Given: one mapped child directory
	env := newTestEnv(t)
	proj := env.mkdir(t, "proj")
	env.writeConfig(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		stderr string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		_, stderr, err := execute(t, ctx, "start", "--dry-run")
		done <- result{stderr, err}
	}()

	// When: files keep changing inside the mapped directory
	dest := filepath.Join(env.dest, "proj")
	i := 0
	require.Eventually(t, func() bool {
		i++
		_ = os.WriteFile(filepath.Join(proj, fmt.Sprintf("f%d.txt", i)), []byte("x"), 0o644)
		_, err := os.Stat(dest)
		return err == nil
	}, 10*time.Second, 50*time.Millisecond)

	// Then: the destination was created and the run stops cleanly
	cancel()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Contains(t, res.stderr, "Starting synchronization...")
		assert.Contains(t, res.stderr, "Stopping synchronization...")
		assert.Contains(t, res.stderr, "Running unison")
	case <-time.After(10 * time.Second):
		t.Fatal("start did not stop after cancellation")
	}

	// And: the dry run was recorded and the PID file removed
	store, err := history.Open(historyPath())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	assert.True(t, runs[0].DryRun)
	assert.Equal(t, proj, runs[0].Source)

	assert.False(t, fileExists(daemon.PIDPath(daemon.StateDir())))
}

type nopNotifier struct{}

func (nopNotifier) Add(string) error    { return nil }
func (nopNotifier) Remove(string) error { return nil }

func TestWatchRoots_WarnsOnlyForUnwatchedDirectories(t *testing.T) {
	// Given: a directory root, a root nested inside it, a plain file and a
	// root that has disappeared
	fsys := memfs.New()
	require.NoError(t, fsys.MkdirAll("/src/app/nested", 0o755))
	f, err := fsys.Create("/src/notes.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	excluder, err := synclist.NewExcluder(nil, nil)
	require.NoError(t, err)
	tree := watcher.NewTree(fsys, nopNotifier{}, excluder)

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	// When: installing the initial watches
	watchRoots(fsys, tree, []string{"/src/app", "/src/app/nested", "/src/gone", "/src/notes.txt"})

	// Then: only the vanished root is reported
	assert.True(t, tree.Contains("/src/app/nested"))
	var warnings []string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "Mapping root not watched") {
			warnings = append(warnings, line)
		}
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "path=/src/gone")
}
