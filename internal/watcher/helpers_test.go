package watcher

import (
	"errors"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/twsync/internal/synclist"
)

// fakeNotifier records Add/Remove calls instead of talking to the kernel.
type fakeNotifier struct {
	active  map[string]bool
	added   []string
	removed []string
	failAdd map[string]error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{active: map[string]bool{}, failAdd: map[string]error{}}
}

func (n *fakeNotifier) Add(name string) error {
	if err, ok := n.failAdd[name]; ok {
		return err
	}
	n.active[name] = true
	n.added = append(n.added, name)
	return nil
}

func (n *fakeNotifier) Remove(name string) error {
	n.removed = append(n.removed, name)
	if !n.active[name] {
		return errors.New("can't remove non-existent watch")
	}
	delete(n.active, name)
	return nil
}

func (n *fakeNotifier) sortedAdded() []string {
	out := append([]string(nil), n.added...)
	sort.Strings(out)
	return out
}

func memTree(t *testing.T, dirs ...string) billy.Filesystem {
	t.Helper()
	fsys := memfs.New()
	for _, d := range dirs {
		require.NoError(t, fsys.MkdirAll(d, 0o755))
	}
	return fsys
}

func writeFile(t *testing.T, fsys billy.Filesystem, path string) {
	t.Helper()
	f, err := fsys.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func excluder(t *testing.T, explicit []string, globs ...string) *synclist.Excluder {
	t.Helper()
	set := synclist.ExcludeSet{}
	for _, p := range explicit {
		set.Add(p)
	}
	e, err := synclist.NewExcluder(set, globs)
	require.NoError(t, err)
	return e
}
