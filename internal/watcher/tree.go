package watcher

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/Aman-CERP/twsync/internal/synclist"
)

// Tree owns the set of directories currently holding a kernel watch.
// It is not safe for concurrent use; the router goroutine is its only
// caller once startup has finished.
type Tree struct {
	fs       billy.Filesystem
	notifier Notifier
	excluder *synclist.Excluder
	watched  map[string]struct{}
}

// NewTree creates an empty Tree.
func NewTree(fsys billy.Filesystem, notifier Notifier, excluder *synclist.Excluder) *Tree {
	return &Tree{
		fs:       fsys,
		notifier: notifier,
		excluder: excluder,
		watched:  make(map[string]struct{}),
	}
}

// AddWatch installs a watch on path and, depth-first, on every directory
// below it. It returns false without effect when path is already watched,
// does not exist, is not a directory, or is excluded; excluded directories
// are not descended into. Symlinked directories are followed when passed
// directly but not while descending.
func (t *Tree) AddWatch(path string) bool {
	return t.add(filepath.Clean(path), true)
}

func (t *Tree) add(path string, follow bool) bool {
	if t.Contains(path) {
		return false
	}

	var info os.FileInfo
	var err error
	if follow {
		info, err = t.fs.Stat(path)
	} else {
		info, err = t.fs.Lstat(path)
	}
	if err != nil {
		slog.Warn("watch target does not exist", slog.String("path", path))
		return false
	}
	if !info.IsDir() {
		return false
	}
	if t.excluder.Excluded(path) {
		slog.Debug("excluding directory", slog.String("path", path))
		return false
	}

	if err := t.notifier.Add(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("directory vanished before watch", slog.String("path", path))
		} else {
			slog.Warn("failed to add watch",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return false
	}
	t.watched[path] = struct{}{}
	slog.Debug("added watch", slog.String("path", path))

	children, err := t.fs.ReadDir(path)
	if err != nil {
		slog.Debug("failed to list watched directory",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return true
	}
	for _, child := range children {
		if !child.IsDir() {
			continue
		}
		t.add(filepath.Join(path, child.Name()), false)
	}
	return true
}

// RemoveWatch uninstalls the watch on path together with any watches
// below it. It returns false if path was not watched.
func (t *Tree) RemoveWatch(path string) bool {
	path = filepath.Clean(path)
	if !t.Contains(path) {
		return false
	}

	prefix := path + string(filepath.Separator)
	for p := range t.watched {
		if p == path || strings.HasPrefix(p, prefix) {
			// The kernel drops watches on deleted directories by itself,
			// so a failed Remove is expected here.
			if err := t.notifier.Remove(p); err != nil {
				slog.Debug("watch already gone",
					slog.String("path", p),
					slog.String("error", err.Error()))
			}
			delete(t.watched, p)
		}
	}
	slog.Debug("removed watch", slog.String("path", path))
	return true
}

// Rewatch replaces a stale entry for path with a fresh watch. It is used
// when a directory is created at a path that is still in the set, which
// can only mean its previous incarnation was deleted.
func (t *Tree) Rewatch(path string) bool {
	t.RemoveWatch(path)
	return t.AddWatch(path)
}

// Contains reports whether path currently holds a watch.
func (t *Tree) Contains(path string) bool {
	_, ok := t.watched[filepath.Clean(path)]
	return ok
}

// Len returns the number of watched directories.
func (t *Tree) Len() int {
	return len(t.watched)
}

// Paths returns the watched directories in lexical order.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.watched))
	for p := range t.watched {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
