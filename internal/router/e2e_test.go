package router

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/twsync/internal/syncer"
	"github.com/Aman-CERP/twsync/internal/synclist"
	"github.com/Aman-CERP/twsync/internal/watcher"
)

type countingRunner struct {
	calls [][]string
}

func (r *countingRunner) Run(_ context.Context, _ string, args ...string) (syncer.Result, error) {
	r.calls = append(r.calls, args)
	return syncer.Result{}, nil
}

func pipeline(t *testing.T, items []synclist.Item, dirs ...string) (*Router, *countingRunner, *synclist.Result, func(string) bool) {
	t.Helper()
	fsys := memfs.New()
	for _, d := range dirs {
		require.NoError(t, fsys.MkdirAll(d, 0o755))
	}

	res, err := synclist.Resolve(fsys, synclist.Input{DefaultSrc: "/src", DefaultDest: "/dst", Items: items})
	require.NoError(t, err)
	excluder, err := synclist.NewExcluder(res.Excluded, nil)
	require.NoError(t, err)

	tree := watcher.NewTree(fsys, nopNotifier{}, excluder)
	for _, root := range res.Mapping.Roots() {
		tree.AddWatch(root)
	}

	runner := &countingRunner{}
	inv := syncer.New(fsys, res.Mapping, syncer.Options{Runner: runner})
	r := New(tree, inv, Options{DefaultSrc: "/src", Mapping: res.Mapping, Excluder: excluder})

	isDir := func(p string) bool {
		info, err := fsys.Stat(p)
		return err == nil && info.IsDir()
	}
	return r, runner, res, isDir
}

func TestEndToEnd_DisabledItemNeverSynced(t *testing.T) {
	r, runner, res, _ := pipeline(t,
		[]synclist.Item{{Src: "foo", Enabled: false}},
		"/src/foo/inner", "/src/other")

	assert.True(t, res.Excluded.Contains("/src/foo"))
	_, isRoot := res.Mapping["/src/foo"]
	assert.False(t, isRoot)

	r.Handle(context.Background(), watcher.Event{Dir: "/src/foo", Name: "file.txt", Op: watcher.OpModify})
	r.Handle(context.Background(), watcher.Event{Dir: "/src/foo/inner", Name: "x", Op: watcher.OpCreate})

	assert.Empty(t, runner.calls)
}

func TestEndToEnd_CustomDestinationCreated(t *testing.T) {
	r, runner, _, isDir := pipeline(t,
		[]synclist.Item{{Src: "bar", Dest: "/custom/bar", Enabled: true}},
		"/src/bar")
	require.False(t, isDir("/custom/bar"))

	r.Handle(context.Background(), watcher.Event{Dir: "/src/bar", Name: "notes.md", Op: watcher.OpModify})

	require.Len(t, runner.calls, 1)
	args := runner.calls[0]
	assert.Equal(t, []string{"/src/bar", "/custom/bar"}, args[len(args)-2:])
	assert.True(t, isDir("/custom/bar"))
}
