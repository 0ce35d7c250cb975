package config

import (
	"github.com/go-git/go-billy/v5"

	twerrors "github.com/Aman-CERP/twsync/internal/errors"
	"github.com/Aman-CERP/twsync/internal/synclist"
)

// Context is the resolved, read-only view of a configuration that every
// component receives explicitly. It is built once per process; reloading
// means building a new one.
type Context struct {
	ConfigPath  string
	DefaultSrc  string
	DefaultDest string
	Mapping     synclist.Mapping
	Excluded    synclist.ExcludeSet
	Excluder    *synclist.Excluder
	Globs       []string
	MergeTool   string
	QueueSize   int
}

// NewContext resolves cfg against fsys.
func NewContext(fsys billy.Filesystem, cfg *Config, path string) (*Context, error) {
	globs := cfg.ExcludeGlobs()

	res, err := synclist.Resolve(fsys, synclist.Input{
		DefaultSrc:  cfg.DefaultSrc,
		DefaultDest: cfg.DefaultDest,
		Items:       cfg.SyncItems(),
		Exclude:     globs,
	})
	if err != nil {
		return nil, err
	}

	excluder, err := synclist.NewExcluder(res.Excluded, globs)
	if err != nil {
		return nil, twerrors.ConfigError(err.Error(), err)
	}

	return &Context{
		ConfigPath:  path,
		DefaultSrc:  cfg.DefaultSrc,
		DefaultDest: cfg.DefaultDest,
		Mapping:     res.Mapping,
		Excluded:    res.Excluded,
		Excluder:    excluder,
		Globs:       globs,
		MergeTool:   cfg.MergeTool,
		QueueSize:   cfg.QueueSize,
	}, nil
}

// LoadContext loads the config at path and resolves it.
func LoadContext(fsys billy.Filesystem, path string) (*Context, *Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	ctx, err := NewContext(fsys, cfg, path)
	if err != nil {
		return nil, nil, err
	}
	return ctx, cfg, nil
}

// SyncItems converts the configured items to resolver input. Relative
// destinations resolve against default_dest.
func (c *Config) SyncItems() []synclist.Item {
	items := make([]synclist.Item, 0, len(c.Items))
	for _, it := range c.Items {
		item := synclist.Item{Src: it.Src, Enabled: it.Enabled}
		if it.Dest != "" {
			item.Dest = c.ItemDestination(it)
		}
		items = append(items, item)
	}
	return items
}
