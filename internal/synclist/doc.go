// Package synclist turns the configured default mapping, per-item overrides
// and exclusion globs into the resolved source -> destination mapping that
// the watcher, router and syncer share.
//
// Resolution happens once at startup:
//
//	res, err := synclist.Resolve(fsys, synclist.Input{
//	    DefaultSrc:  "/home/me/workspace",
//	    DefaultDest: "/mnt/c/Users/me/OneDrive/workspace",
//	    Items:       items,
//	    Exclude:     []string{"node_modules"},
//	})
//
// Afterwards every consumer maps an arbitrary path back to the mapping root
// that owns it with Mapping.Resolve, the nearest-ancestor walk:
//
//	root, suffix, ok := res.Mapping.Resolve("/home/me/workspace/proj/src")
//
// Overlapping declarations for the same source resolve last-write-wins.
// Nested roots resolve most-specific-wins, since the walk stops at the
// nearest ancestor.
package synclist
