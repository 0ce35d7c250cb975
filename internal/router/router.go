// Package router turns filesystem change events into watch-set updates and
// merge-tool invocations.
//
// A Router consumes one event at a time. Every invocation it dispatches
// runs to completion before the next event is read, so WatchTree needs no
// locking and syncs never overlap.
package router

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	twerrors "github.com/Aman-CERP/twsync/internal/errors"
	"github.com/Aman-CERP/twsync/internal/syncer"
	"github.com/Aman-CERP/twsync/internal/synclist"
	"github.com/Aman-CERP/twsync/internal/watcher"
)

// filterCacheSize bounds the number of directories whose ignore lists are
// kept by a Router.
const filterCacheSize = 1024

// dirFilters holds the ignore and ignorenot lists for one watched directory.
// Both depend only on the mapping and the explicit exclude set, which are
// fixed for the lifetime of a Router.
type dirFilters struct {
	ignore    []string
	ignoreNot []string
}

// Invoker runs one sync. *syncer.Invoker satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, req syncer.Request) error
}

// Options configures a Router.
type Options struct {
	// DefaultSrc is the global default source root. Events directly inside
	// it only change which roots exist and are not synced.
	DefaultSrc string
	Mapping    synclist.Mapping
	Excluder   *synclist.Excluder
	DryRun     bool
}

// Stats counts what the router did with the events it saw.
type Stats struct {
	Events     uint64 `json:"events"`
	Dispatched uint64 `json:"dispatched"`
	Failed     uint64 `json:"failed"`
	Skipped    uint64 `json:"skipped"`
}

// Router is the single consumer of the event queue.
type Router struct {
	tree    *watcher.Tree
	invoker Invoker
	opts    Options
	filters *lru.Cache[string, dirFilters]

	events     atomic.Uint64
	dispatched atomic.Uint64
	failed     atomic.Uint64
	skipped    atomic.Uint64
}

// New creates a Router. tree must already hold the initial watches.
func New(tree *watcher.Tree, invoker Invoker, opts Options) *Router {
	opts.DefaultSrc = filepath.Clean(opts.DefaultSrc)
	// lru.New only fails for a non-positive size.
	filters, _ := lru.New[string, dirFilters](filterCacheSize)
	return &Router{tree: tree, invoker: invoker, opts: opts, filters: filters}
}

// Run handles events until ctx is cancelled or events is closed.
// Cancellation is only observed between events.
func (r *Router) Run(ctx context.Context, events <-chan watcher.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Handle(ctx, ev)
		}
	}
}

// Handle processes a single event.
func (r *Router) Handle(ctx context.Context, ev watcher.Event) {
	r.events.Add(1)
	path := ev.Path()
	mapping := r.opts.Mapping

	slog.Debug("change event",
		slog.String("dir", ev.Dir),
		slog.String("name", ev.Name),
		slog.String("op", ev.Op.String()))

	if ev.Op.Has(watcher.OpCreate | watcher.OpIsDir) {
		if r.tree.Contains(path) {
			// Still tracked from a previous incarnation that was deleted.
			r.tree.Rewatch(path)
		} else {
			r.tree.AddWatch(path)
		}
	}

	// Deleted entries can't be stat'ed; mapping roots are directories.
	if ev.Op.Has(watcher.OpDelete) && mapping.IsRoot(path) {
		r.tree.RemoveWatch(path)
	}

	if r.opts.Excluder.Excluded(path) && !mapping.IsRoot(path) {
		slog.Debug("ignoring excluded path", slog.String("path", path))
		r.skipped.Add(1)
		return
	}

	dir := filepath.Clean(ev.Dir)
	if dir == r.opts.DefaultSrc {
		r.skipped.Add(1)
		return
	}

	if _, _, ok := mapping.Resolve(dir); !ok {
		slog.Warn("Source directory not found in sync list", slog.String("path", dir))
		r.skipped.Add(1)
		return
	}

	f := r.filtersFor(dir)
	req := syncer.Request{
		Dir:       dir,
		Ignore:    f.ignore,
		IgnoreNot: f.ignoreNot,
		DryRun:    r.opts.DryRun,
	}

	slog.Info("Synchronizing", slog.String("src", dir), slog.String("trigger", ev.Op.String()+" "+ev.Name))
	r.dispatched.Add(1)
	// A dispatched sync always finishes, even if shutdown was requested.
	if err := r.invoker.Invoke(context.WithoutCancel(ctx), req); err != nil {
		r.failed.Add(1)
		slog.Debug("sync attempt failed", twerrors.FormatForLog(err)...)
	}
}

// filtersFor returns the ignore lists for dir. Building them sorts every
// mapping root and explicit exclude, so results are cached per directory.
func (r *Router) filtersFor(dir string) dirFilters {
	if f, ok := r.filters.Get(dir); ok {
		return f
	}
	f := dirFilters{
		ignore:    r.opts.Excluder.Explicit().Under(dir),
		ignoreNot: r.opts.Mapping.RootsUnder(dir),
	}
	r.filters.Add(dir, f)
	return f
}

// Stats returns a snapshot of the counters. Safe to call concurrently
// with Run.
func (r *Router) Stats() Stats {
	return Stats{
		Events:     r.events.Load(),
		Dispatched: r.dispatched.Load(),
		Failed:     r.failed.Load(),
		Skipped:    r.skipped.Load(),
	}
}
