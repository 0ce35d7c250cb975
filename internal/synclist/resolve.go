package synclist

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5"

	twerrors "github.com/Aman-CERP/twsync/internal/errors"
)

// Item is one per-directory override from the configuration.
type Item struct {
	// Src is absolute or relative to the default source.
	Src string
	// Dest is the explicit destination; empty means derive it.
	Dest string
	// Enabled false disables synchronization of Src.
	Enabled bool
}

// Input is everything Resolve needs.
type Input struct {
	DefaultSrc  string
	DefaultDest string
	Items       []Item
	Exclude     []string
}

// Result is the outcome of a resolution pass.
type Result struct {
	Mapping  Mapping
	Excluded ExcludeSet
}

// Resolve computes the root -> destination mapping and the explicit exclude
// set from the default mapping, the items in declaration order and the
// exclude globs.
//
// Every direct child of DefaultSrc seeds one entry pointing at the same name
// under DefaultDest. Items then add, override or remove entries; the last
// declaration for a given source wins. Finally every entry whose basename
// matches an exclude glob is dropped.
func Resolve(fsys billy.Filesystem, in Input) (*Result, error) {
	defaultSrc := filepath.Clean(in.DefaultSrc)
	defaultDest := filepath.Clean(in.DefaultDest)

	entries, err := fsys.ReadDir(defaultSrc)
	if err != nil {
		return nil, twerrors.PathVanished(defaultSrc, err).
			WithSuggestion("Create the default source directory or change default_src with 'twsync init'")
	}

	mapping := make(Mapping, len(entries))
	for _, entry := range entries {
		mapping[filepath.Join(defaultSrc, entry.Name())] = filepath.Join(defaultDest, entry.Name())
	}

	excluded := ExcludeSet{}
	for i, item := range in.Items {
		if filepath.IsAbs(item.Src) {
			src := filepath.Clean(item.Src)
			if !item.Enabled {
				excluded.Add(src)
				delete(mapping, src)
				continue
			}
			if item.Dest == "" {
				return nil, twerrors.ConfigError(
					fmt.Sprintf("items[%d]: absolute source %s requires a dest", i, src), nil)
			}
			set(mapping, src, filepath.Clean(item.Dest))
			continue
		}

		src := filepath.Join(defaultSrc, item.Src)
		switch {
		case !item.Enabled:
			excluded.Add(src)
			delete(mapping, src)
		case item.Dest != "":
			set(mapping, src, filepath.Clean(item.Dest))
		default:
			if dest, ok := mapping.Destination(src); ok {
				set(mapping, src, dest)
			} else {
				set(mapping, src, filepath.Join(defaultDest, item.Src))
			}
		}
	}

	excluder, err := NewExcluder(nil, in.Exclude)
	if err != nil {
		return nil, twerrors.ConfigError(err.Error(), err)
	}
	for src := range mapping {
		if excluder.MatchName(filepath.Base(src)) {
			delete(mapping, src)
		}
	}

	return &Result{Mapping: mapping, Excluded: excluded}, nil
}

func set(m Mapping, src, dest string) {
	if prev, ok := m[src]; ok && prev != dest {
		slog.Debug("sync item overrides earlier destination",
			slog.String("src", src),
			slog.String("previous", prev),
			slog.String("dest", dest))
	}
	m[src] = dest
}
