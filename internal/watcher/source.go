package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-billy/v5"
)

// Source reads raw fsnotify notifications and feeds converted events into
// a bounded queue.
type Source struct {
	fsw       *fsnotify.Watcher
	fs        billy.Filesystem
	events    chan Event
	opts      Options
	delivered atomic.Uint64
	overflows atomic.Uint64
}

// NewSource creates an fsnotify watcher and the queue behind it.
func NewSource(fsys billy.Filesystem, opts Options) (*Source, error) {
	opts = opts.WithDefaults()

	var (
		fsw *fsnotify.Watcher
		err error
	)
	if opts.NotifyBufferSize > 0 {
		fsw, err = fsnotify.NewBufferedWatcher(opts.NotifyBufferSize)
	} else {
		fsw, err = fsnotify.NewWatcher()
	}
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Source{
		fsw:    fsw,
		fs:     fsys,
		events: make(chan Event, opts.QueueSize),
		opts:   opts,
	}, nil
}

// Notifier returns the underlying fsnotify watcher for use by a Tree.
func (s *Source) Notifier() Notifier {
	return s.fsw
}

// Events returns the queue of converted events. It is closed when Run
// returns.
func (s *Source) Events() <-chan Event {
	return s.events
}

// Run pumps notifications into the queue until ctx is cancelled or the
// fsnotify watcher is closed. A full queue blocks the pump.
func (s *Source) Run(ctx context.Context) error {
	defer close(s.events)
	defer func() { _ = s.fsw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-s.fsw.Events:
			if !ok {
				return nil
			}
			ev, ok := s.convert(raw)
			if !ok {
				continue
			}
			select {
			case s.events <- ev:
				s.delivered.Add(1)
			case <-ctx.Done():
				return nil
			}
		case err, ok := <-s.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				count := s.overflows.Add(1)
				slog.Warn("kernel event queue overflowed, changes may have been missed",
					slog.Uint64("total_overflows", count))
				continue
			}
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// convert maps an fsnotify event to an Event. Directory-ness can only be
// observed for entries that still exist, so OpIsDir is set for creations
// only; consumers infer it for deletions from what they were watching.
func (s *Source) convert(raw fsnotify.Event) (Event, bool) {
	var op Op
	if raw.Has(fsnotify.Create) {
		op |= OpCreate
		if info, err := s.fs.Lstat(raw.Name); err == nil && info.IsDir() {
			op |= OpIsDir
		}
	}
	if raw.Has(fsnotify.Remove) || raw.Has(fsnotify.Rename) {
		op |= OpDelete
	}
	if raw.Has(fsnotify.Write) {
		op |= OpModify
	}
	if raw.Has(fsnotify.Chmod) {
		op |= OpAttrib
	}
	if op == 0 {
		return Event{}, false
	}

	name := filepath.Clean(raw.Name)
	return Event{
		Dir:       filepath.Dir(name),
		Name:      filepath.Base(name),
		Op:        op,
		Timestamp: time.Now(),
	}, true
}

// Delivered returns the number of events handed to the queue.
func (s *Source) Delivered() uint64 {
	return s.delivered.Load()
}

// Overflows returns how many kernel queue overflows were reported.
func (s *Source) Overflows() uint64 {
	return s.overflows.Load()
}

// Close releases the fsnotify watcher without running the pump. Safe to
// call after Run has returned.
func (s *Source) Close() error {
	return s.fsw.Close()
}
