package synclist

import (
	"path/filepath"
	"sort"
	"strings"
)

// Mapping maps absolute source directories (mapping roots) to absolute
// destination directories.
type Mapping map[string]string

// Resolve walks path and its ancestors until one is a key in m.
// It returns the matched root and the path of path relative to that root
// ("" when path itself is a root). ok is false when the filesystem root was
// reached without a match.
func (m Mapping) Resolve(path string) (root, suffix string, ok bool) {
	p := filepath.Clean(path)
	var segments []string
	for {
		if _, found := m[p]; found {
			// segments were collected bottom-up
			for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
				segments[i], segments[j] = segments[j], segments[i]
			}
			return p, filepath.Join(segments...), true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", "", false
		}
		segments = append(segments, filepath.Base(p))
		p = parent
	}
}

// Destination returns the destination directory for path: the destination
// of its nearest mapping root joined with the remaining suffix.
func (m Mapping) Destination(path string) (string, bool) {
	root, suffix, ok := m.Resolve(path)
	if !ok {
		return "", false
	}
	return filepath.Join(m[root], suffix), true
}

// IsRoot reports whether path is itself a mapping root.
func (m Mapping) IsRoot(path string) bool {
	_, ok := m[filepath.Clean(path)]
	return ok
}

// Roots returns the mapping roots in lexical order.
func (m Mapping) Roots() []string {
	roots := make([]string, 0, len(m))
	for root := range m {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

// RootsUnder returns every mapping root strictly below dir, relative to dir,
// in lexical order.
func (m Mapping) RootsUnder(dir string) []string {
	return descendants(m.Roots(), dir)
}

// descendants filters paths to those strictly below dir and rewrites them
// relative to dir.
func descendants(paths []string, dir string) []string {
	dir = filepath.Clean(dir)
	prefix := dir + string(filepath.Separator)
	if dir == string(filepath.Separator) {
		prefix = dir
	}

	var rel []string
	for _, p := range paths {
		if p == dir || !strings.HasPrefix(p, prefix) {
			continue
		}
		rel = append(rel, strings.TrimPrefix(p, prefix))
	}
	return rel
}
