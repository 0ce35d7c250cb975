package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/twsync/internal/syncer"
	"github.com/Aman-CERP/twsync/internal/synclist"
	"github.com/Aman-CERP/twsync/internal/watcher"
)

type nopNotifier struct{}

func (nopNotifier) Add(string) error    { return nil }
func (nopNotifier) Remove(string) error { return nil }

type recordingInvoker struct {
	mu   sync.Mutex
	reqs []syncer.Request
	err  error
	hook func(ctx context.Context)
}

func (r *recordingInvoker) Invoke(ctx context.Context, req syncer.Request) error {
	if r.hook != nil {
		r.hook(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	return r.err
}

func (r *recordingInvoker) requests() []syncer.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]syncer.Request(nil), r.reqs...)
}

type fixture struct {
	fs      billy.Filesystem
	result  *synclist.Result
	tree    *watcher.Tree
	invoker *recordingInvoker
	router  *Router
}

// newFixture resolves items against /src -> /dst, installs the initial
// watches and wires a router to a recording invoker.
func newFixture(t *testing.T, dirs []string, items []synclist.Item, globs ...string) *fixture {
	t.Helper()
	fsys := memfs.New()
	for _, d := range dirs {
		require.NoError(t, fsys.MkdirAll(d, 0o755))
	}

	res, err := synclist.Resolve(fsys, synclist.Input{
		DefaultSrc:  "/src",
		DefaultDest: "/dst",
		Items:       items,
		Exclude:     globs,
	})
	require.NoError(t, err)

	excluder, err := synclist.NewExcluder(res.Excluded, globs)
	require.NoError(t, err)

	tree := watcher.NewTree(fsys, nopNotifier{}, excluder)
	for _, root := range res.Mapping.Roots() {
		tree.AddWatch(root)
	}

	inv := &recordingInvoker{}
	r := New(tree, inv, Options{
		DefaultSrc: "/src",
		Mapping:    res.Mapping,
		Excluder:   excluder,
	})
	return &fixture{fs: fsys, result: res, tree: tree, invoker: inv, router: r}
}

func event(dir, name string, op watcher.Op) watcher.Event {
	return watcher.Event{Dir: dir, Name: name, Op: op, Timestamp: time.Now()}
}

func TestRouter_ModifyDispatchesSync(t *testing.T) {
	f := newFixture(t, []string{"/src/app/pkg"}, nil)

	f.router.Handle(context.Background(), event("/src/app/pkg", "main.go", watcher.OpModify))

	reqs := f.invoker.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/src/app/pkg", reqs[0].Dir)
	assert.Empty(t, reqs[0].Ignore)
	assert.Empty(t, reqs[0].IgnoreNot)
	assert.False(t, reqs[0].DryRun)
}

func TestRouter_DirectoryCreationAddsOneWatch(t *testing.T) {
	// Given: a watched root
	f := newFixture(t, []string{"/src/app"}, nil)
	before := f.tree.Len()
	require.NoError(t, f.fs.MkdirAll("/src/app/new", 0o755))

	// When: the creation event arrives
	f.router.Handle(context.Background(), event("/src/app", "new", watcher.OpCreate|watcher.OpIsDir))

	// Then: exactly one new entry for the created path
	assert.Equal(t, before+1, f.tree.Len())
	assert.True(t, f.tree.Contains("/src/app/new"))
	assert.Len(t, f.invoker.requests(), 1)
}

func TestRouter_RecreatedDirectoryIsRewatched(t *testing.T) {
	f := newFixture(t, []string{"/src/app/old"}, nil)
	require.NoError(t, f.fs.Remove("/src/app/old"))
	require.NoError(t, f.fs.MkdirAll("/src/app/old/child", 0o755))

	f.router.Handle(context.Background(), event("/src/app", "old", watcher.OpCreate|watcher.OpIsDir))

	assert.True(t, f.tree.Contains("/src/app/old/child"))
}

func TestRouter_DeletionOfRootRemovesWatch(t *testing.T) {
	f := newFixture(t, []string{"/src/app/sub", "/src/lib"}, nil)
	require.True(t, f.tree.Contains("/src/app"))

	// Deleting a tracked root shrinks the watch set
	f.router.Handle(context.Background(), event("/src", "app", watcher.OpDelete))
	assert.False(t, f.tree.Contains("/src/app"))
	assert.False(t, f.tree.Contains("/src/app/sub"))
	assert.True(t, f.tree.Contains("/src/lib"))

	// Top-level membership changes are not synced
	assert.Empty(t, f.invoker.requests())
}

func TestRouter_DeletionOfNonRootKeepsWatchSet(t *testing.T) {
	f := newFixture(t, []string{"/src/app/sub"}, nil)
	before := f.tree.Paths()

	f.router.Handle(context.Background(), event("/src/app", "sub", watcher.OpDelete))

	assert.Equal(t, before, f.tree.Paths())
	reqs := f.invoker.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/src/app", reqs[0].Dir)
}

func TestRouter_DefaultSrcEventsSkipped(t *testing.T) {
	f := newFixture(t, []string{"/src/app"}, nil)

	f.router.Handle(context.Background(), event("/src", "README.md", watcher.OpModify))

	assert.Empty(t, f.invoker.requests())
	assert.Equal(t, uint64(1), f.router.Stats().Skipped)
}

func TestRouter_ExcludedNamesSkipped(t *testing.T) {
	f := newFixture(t, []string{"/src/app"}, nil, "node_modules", ".unison*")
	require.NoError(t, f.fs.MkdirAll("/src/app/node_modules/x", 0o755))

	f.router.Handle(context.Background(), event("/src/app", "node_modules", watcher.OpCreate|watcher.OpIsDir))
	f.router.Handle(context.Background(), event("/src/app", ".unison.tmp", watcher.OpModify))

	assert.Empty(t, f.invoker.requests())
	assert.False(t, f.tree.Contains("/src/app/node_modules"))
}

func TestRouter_ExcludedRootStillSynced(t *testing.T) {
	// Given: a nested root whose name matches an exclude glob
	f := newFixture(t, []string{"/src/app/cache"},
		[]synclist.Item{{Src: "app/cache", Dest: "/mnt/cache", Enabled: true}})
	excluder, err := synclist.NewExcluder(f.result.Excluded, []string{"cache"})
	require.NoError(t, err)
	f.router.opts.Excluder = excluder

	// When: the root itself changes
	f.router.Handle(context.Background(), event("/src/app", "cache", watcher.OpAttrib|watcher.OpIsDir))

	// Then: the exclusion does not apply to a mapping root
	reqs := f.invoker.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/src/app", reqs[0].Dir)
	assert.Equal(t, []string{"cache"}, reqs[0].IgnoreNot)
}

func TestRouter_IgnoreAndIgnoreNot(t *testing.T) {
	// Given: a disabled subdirectory and a nested root with its own dest
	f := newFixture(t,
		[]string{"/src/app/secret", "/src/app/nested", "/src/app/docs"},
		[]synclist.Item{
			{Src: "app/secret", Enabled: false},
			{Src: "app/nested", Dest: "/elsewhere/nested", Enabled: true},
		})

	// When: something changes directly in the parent root
	f.router.Handle(context.Background(), event("/src/app", "go.mod", watcher.OpModify))

	// Then: the disabled path is ignored and the nested root kept
	reqs := f.invoker.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"secret"}, reqs[0].Ignore)
	assert.Equal(t, []string{"nested"}, reqs[0].IgnoreNot)
}

func TestRouter_IgnoreListsCachedPerDirectory(t *testing.T) {
	// Given: a parent root with a disabled child and a nested root
	f := newFixture(t,
		[]string{"/src/app/secret", "/src/app/nested", "/src/web"},
		[]synclist.Item{
			{Src: "app/secret", Enabled: false},
			{Src: "app/nested", Dest: "/elsewhere/nested", Enabled: true},
		})

	// When: several changes land in the same directories
	ctx := context.Background()
	f.router.Handle(ctx, event("/src/app", "a.go", watcher.OpModify))
	f.router.Handle(ctx, event("/src/app", "b.go", watcher.OpModify))
	f.router.Handle(ctx, event("/src/web", "index.html", watcher.OpModify))

	// Then: each directory's lists are built once and reused unchanged
	reqs := f.invoker.requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, reqs[0].Ignore, reqs[1].Ignore)
	assert.Equal(t, reqs[0].IgnoreNot, reqs[1].IgnoreNot)
	assert.Equal(t, []string{"secret"}, reqs[1].Ignore)
	assert.Equal(t, []string{"nested"}, reqs[1].IgnoreNot)
	assert.Empty(t, reqs[2].Ignore)
	assert.Empty(t, reqs[2].IgnoreNot)
	assert.Equal(t, 2, f.router.filters.Len())
}

func TestRouter_NoRootSkipped(t *testing.T) {
	f := newFixture(t, []string{"/src/app"}, nil)

	f.router.Handle(context.Background(), event("/var/tmp", "x", watcher.OpModify))

	assert.Empty(t, f.invoker.requests())
}

func TestRouter_DryRunPropagates(t *testing.T) {
	f := newFixture(t, []string{"/src/app"}, nil)
	f.router.opts.DryRun = true

	f.router.Handle(context.Background(), event("/src/app", "x", watcher.OpModify))

	reqs := f.invoker.requests()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].DryRun)
}

func TestRouter_InvocationFailureCounted(t *testing.T) {
	f := newFixture(t, []string{"/src/app"}, nil)
	f.invoker.err = assert.AnError

	f.router.Handle(context.Background(), event("/src/app", "x", watcher.OpModify))
	f.router.Handle(context.Background(), event("/src/app", "y", watcher.OpModify))

	stats := f.router.Stats()
	assert.Equal(t, uint64(2), stats.Events)
	assert.Equal(t, uint64(2), stats.Dispatched)
	assert.Equal(t, uint64(2), stats.Failed)
}

func TestRouter_Run_StopsWhenQueueClosed(t *testing.T) {
	f := newFixture(t, []string{"/src/app"}, nil)
	events := make(chan watcher.Event, 2)
	events <- event("/src/app", "a", watcher.OpModify)
	events <- event("/src/app", "b", watcher.OpModify)
	close(events)

	err := f.router.Run(context.Background(), events)

	require.NoError(t, err)
	assert.Len(t, f.invoker.requests(), 2)
}

func TestRouter_Run_InFlightSyncSurvivesCancel(t *testing.T) {
	f := newFixture(t, []string{"/src/app"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var invokeCtxErr error
	f.invoker.hook = func(invokeCtx context.Context) {
		cancel()
		invokeCtxErr = invokeCtx.Err()
	}

	events := make(chan watcher.Event, 1)
	events <- event("/src/app", "a", watcher.OpModify)

	done := make(chan error, 1)
	go func() { done <- f.router.Run(ctx, events) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("router did not stop after cancel")
	}
	assert.NoError(t, invokeCtxErr, "dispatched sync must not see cancellation")
	assert.Len(t, f.invoker.requests(), 1)
}
