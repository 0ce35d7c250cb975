package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/twsync/internal/config"
	"github.com/Aman-CERP/twsync/internal/daemon"
	twerrors "github.com/Aman-CERP/twsync/internal/errors"
	"github.com/Aman-CERP/twsync/internal/history"
	"github.com/Aman-CERP/twsync/internal/preflight"
	"github.com/Aman-CERP/twsync/internal/router"
	"github.com/Aman-CERP/twsync/internal/syncer"
	"github.com/Aman-CERP/twsync/internal/watcher"
)

func newStartCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the synchronization process",
		Long: `Watch every mapped directory and run unison for each change until
interrupted with Ctrl+C or SIGTERM.

With --dry-run the unison command is logged instead of executed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStart(cmd.Context(), dryRun)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Print the unison command instead of running it")

	return cmd
}

func runStart(ctx context.Context, dryRun bool) error {
	if res := preflight.New(preflight.WithOutput(io.Discard)).CheckPlatform(); res.IsCritical() {
		return twerrors.UnsupportedPlatform(runtime.GOOS)
	}

	fsys := osfs.New("/")
	sc, _, err := config.LoadContext(fsys, config.GetConfigPath())
	if err != nil {
		return err
	}
	if len(sc.Mapping) == 0 {
		return twerrors.New(twerrors.ErrCodeNoSyncRoots, "no directories to sync", nil).
			WithDetail("default_src", sc.DefaultSrc).
			WithSuggestion("Create directories under " + sc.DefaultSrc + " or enable items in " + sc.ConfigPath)
	}

	inst, err := daemon.Acquire(daemon.StateDir())
	if err != nil {
		return err
	}
	defer func() {
		if err := inst.Release(); err != nil {
			slog.Warn("Failed to release instance lock", slog.String("error", err.Error()))
		}
	}()

	var recorder history.Recorder = history.Nop{}
	store, err := history.Open(historyPath())
	if err != nil {
		slog.Warn("Sync history disabled", slog.String("error", err.Error()))
	} else {
		defer func() { _ = store.Close() }()
		recorder = store
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runSync(ctx, fsys, sc, recorder, dryRun)
}

// runSync installs the initial watches and runs the event source and the
// router until ctx is cancelled.
func runSync(ctx context.Context, fsys billy.Filesystem, sc *config.Context, recorder history.Recorder, dryRun bool) error {
	src, err := watcher.NewSource(fsys, watcher.Options{QueueSize: sc.QueueSize})
	if err != nil {
		return twerrors.InternalError("cannot start file watcher", err)
	}

	slog.Info("Starting synchronization...")
	slog.Debug("Sync list", slog.Any("mapping", sc.Mapping))

	tree := watcher.NewTree(fsys, src.Notifier(), sc.Excluder)
	watchRoots(fsys, tree, sc.Mapping.Roots())
	slog.Debug("Initial watches installed", slog.Int("directories", tree.Len()))

	invoker := syncer.New(fsys, sc.Mapping, syncer.Options{
		Tool:      sc.MergeTool,
		NameGlobs: sc.Globs,
		Recorder:  recorder,
	})
	rt := router.New(tree, invoker, router.Options{
		DefaultSrc: sc.DefaultSrc,
		Mapping:    sc.Mapping,
		Excluder:   sc.Excluder,
		DryRun:     dryRun,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return src.Run(gctx) })
	g.Go(func() error { return rt.Run(gctx, src.Events()) })

	err = g.Wait()
	slog.Info("Stopping synchronization...")

	stats := rt.Stats()
	slog.Debug("Synchronizer stopped",
		slog.Uint64("events", stats.Events),
		slog.Uint64("dispatched", stats.Dispatched),
		slog.Uint64("failed", stats.Failed),
		slog.Uint64("skipped", stats.Skipped),
		slog.Uint64("overflows", src.Overflows()))

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchRoots installs the initial watches. Roots that are plain files, or
// that an enclosing root already covers, are skipped without a warning.
func watchRoots(fsys billy.Filesystem, tree *watcher.Tree, roots []string) {
	for _, root := range roots {
		if tree.AddWatch(root) || tree.Contains(root) {
			continue
		}
		if info, err := fsys.Stat(root); err == nil && !info.IsDir() {
			continue
		}
		slog.Warn("Mapping root not watched", slog.String("path", root))
	}
}
