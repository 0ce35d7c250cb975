// Package syncer runs the external two-way merge tool for a changed
// directory.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"

	twerrors "github.com/Aman-CERP/twsync/internal/errors"
	"github.com/Aman-CERP/twsync/internal/history"
	"github.com/Aman-CERP/twsync/internal/logging"
	"github.com/Aman-CERP/twsync/internal/synclist"
)

// Request describes one sync of a changed directory.
type Request struct {
	// Dir is the changed source directory.
	Dir string
	// Ignore lists subpaths of Dir, relative to it, to leave out.
	Ignore []string
	// IgnoreNot lists subpaths of Dir, relative to it, that must be kept
	// even if an ignore rule would drop them.
	IgnoreNot []string
	// DryRun logs the command instead of running it.
	DryRun bool
}

// Options configures an Invoker.
type Options struct {
	// Tool is the merge tool binary. Default: "unison".
	Tool string
	// NameGlobs are basename patterns ignored at every level.
	NameGlobs []string
	// Runner executes the tool. Default: ExecRunner{}.
	Runner Runner
	// Recorder receives every attempted run. Default: history.Nop{}.
	Recorder history.Recorder
}

// Invoker maps a changed directory to its destination and synchronizes
// the two with the merge tool.
type Invoker struct {
	fs       billy.Filesystem
	mapping  synclist.Mapping
	tool     string
	globs    []string
	runner   Runner
	recorder history.Recorder
	now      func() time.Time
}

// New creates an Invoker for mapping.
func New(fsys billy.Filesystem, mapping synclist.Mapping, opts Options) *Invoker {
	if opts.Tool == "" {
		opts.Tool = "unison"
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Recorder == nil {
		opts.Recorder = history.Nop{}
	}
	return &Invoker{
		fs:       fsys,
		mapping:  mapping,
		tool:     opts.Tool,
		globs:    opts.NameGlobs,
		runner:   opts.Runner,
		recorder: opts.Recorder,
		now:      time.Now,
	}
}

// Destination returns where dir is synchronized to.
func (i *Invoker) Destination(dir string) (string, error) {
	dest, ok := i.mapping.Destination(dir)
	if !ok {
		return "", twerrors.New(twerrors.ErrCodeNoMappingRoot,
			"source directory not found in sync list: "+dir, nil).
			WithDetail("path", dir)
	}
	return dest, nil
}

// Invoke synchronizes req.Dir with its destination, creating the
// destination first. It blocks until the tool exits. A non-zero exit
// yields ERR_402; the caller decides whether that is fatal.
func (i *Invoker) Invoke(ctx context.Context, req Request) error {
	src := filepath.Clean(req.Dir)
	dest, err := i.Destination(src)
	if err != nil {
		slog.Error("Source directory not found in sync list", slog.String("path", src))
		return err
	}

	if err := i.fs.MkdirAll(dest, 0o755); err != nil {
		i.record(ctx, history.Run{StartedAt: i.now(), Source: src, Dest: dest, DryRun: req.DryRun, ExitCode: -1, Error: err.Error()})
		slog.Error("Synchronization failed",
			slog.String("src", src), slog.String("dest", dest), slog.String("error", err.Error()))
		return twerrors.New(twerrors.ErrCodeInvocationFailed,
			"failed to create destination "+dest, err).WithDetail("dest", dest)
	}

	args := i.Args(src, dest, req)
	display := i.tool + " " + strings.Join(quoteArgs(args), " ")

	if req.DryRun {
		slog.Info("Running "+display, slog.Bool("dry_run", true))
		i.record(ctx, history.Run{StartedAt: i.now(), Source: src, Dest: dest, DryRun: true, Success: true})
		return nil
	}

	slog.Debug("Running " + display)
	started := i.now()
	res, runErr := i.runner.Run(ctx, i.tool, args...)
	run := history.Run{
		StartedAt: started,
		Source:    src,
		Dest:      dest,
		ExitCode:  res.ExitCode,
		Duration:  i.now().Sub(started),
	}

	switch {
	case runErr != nil:
		run.Error = runErr.Error()
		i.record(ctx, run)
		slog.Error("Synchronization failed", slog.String("src", src), slog.String("error", runErr.Error()))
		return twerrors.New(twerrors.ErrCodeInvocationFailed, "failed to run "+i.tool, runErr).
			WithDetail("src", src)
	case res.ExitCode != 0:
		run.Error = fmt.Sprintf("exit status %d", res.ExitCode)
		i.record(ctx, run)
		slog.Error("Synchronization failed", slog.String("src", src), slog.Int("exit_code", res.ExitCode))
		if res.Stderr != "" {
			slog.Debug("merge tool output", slog.String("stderr", strings.TrimSpace(res.Stderr)))
		}
		return twerrors.New(twerrors.ErrCodeInvocationFailed,
			fmt.Sprintf("%s exited with status %d", i.tool, res.ExitCode), nil).
			WithDetail("src", src).
			WithDetail("dest", dest)
	}

	run.Success = true
	i.record(ctx, run)
	logging.Success("Synchronization successful", slog.String("src", src), slog.String("dest", dest))
	return nil
}

// Args builds the merge tool's argument list: non-interactive flags, then
// every ignorenot, every path ignore, every name ignore, and finally the
// two roots.
func (i *Invoker) Args(src, dest string, req Request) []string {
	args := []string{"-auto", "-batch", "-silent", "-confirmbigdel=false"}
	for _, p := range req.IgnoreNot {
		args = append(args, "-ignorenot", "Path "+p)
	}
	for _, p := range req.Ignore {
		args = append(args, "-ignore", "Path "+p)
	}
	for _, g := range i.globs {
		args = append(args, "-ignore", "Name "+g)
	}
	return append(args, src, dest)
}

func (i *Invoker) record(ctx context.Context, run history.Run) {
	if err := i.recorder.Record(ctx, run); err != nil {
		slog.Warn("failed to record sync run", slog.String("error", err.Error()))
	}
}

func quoteArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t'\"") {
			out[i] = fmt.Sprintf("%q", a)
		} else {
			out[i] = a
		}
	}
	return out
}
