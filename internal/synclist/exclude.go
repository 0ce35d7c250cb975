package synclist

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

// ExcludeSet holds absolute paths disabled by name through configuration
// items.
type ExcludeSet map[string]struct{}

// Add inserts path into the set.
func (s ExcludeSet) Add(path string) {
	s[filepath.Clean(path)] = struct{}{}
}

// Contains reports whether path is explicitly excluded.
func (s ExcludeSet) Contains(path string) bool {
	_, ok := s[filepath.Clean(path)]
	return ok
}

// Paths returns the excluded paths in lexical order.
func (s ExcludeSet) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Under returns every excluded path strictly below dir, relative to dir,
// in lexical order.
func (s ExcludeSet) Under(dir string) []string {
	return descendants(s.Paths(), dir)
}

// Excluder answers exclusion questions for a path: it is excluded when it is
// in the explicit set or its basename matches any of the glob patterns.
// Globs follow fnmatch syntax, so "[!x]" negates a class, and are tested
// against the basename only, so they apply at every directory level.
type Excluder struct {
	explicit ExcludeSet
	globs    []string
	matchers []string
}

// NewExcluder creates an Excluder. Patterns are validated up front.
func NewExcluder(explicit ExcludeSet, globs []string) (*Excluder, error) {
	matchers := make([]string, len(globs))
	for i, g := range globs {
		matchers[i] = TranslateGlob(g)
		if _, err := filepath.Match(matchers[i], ""); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", g, err)
		}
	}
	if explicit == nil {
		explicit = ExcludeSet{}
	}
	return &Excluder{
		explicit: explicit,
		globs:    append([]string(nil), globs...),
		matchers: matchers,
	}, nil
}

// TranslateGlob rewrites an fnmatch pattern for filepath.Match: a class
// opened with "[!" becomes "[^". Other syntax is shared by both.
func TranslateGlob(pattern string) string {
	if !strings.Contains(pattern, "[!") {
		return pattern
	}
	var b strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			i++
			b.WriteByte(pattern[i])
			continue
		case c == '[' && !inClass:
			inClass = true
			b.WriteByte(c)
			if i+1 < len(pattern) && pattern[i+1] == '!' {
				b.WriteByte('^')
				i++
			}
			continue
		case c == ']' && inClass:
			inClass = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Explicit returns the explicit exclude set.
func (e *Excluder) Explicit() ExcludeSet {
	return e.explicit
}

// Globs returns the exclude patterns in declaration order.
func (e *Excluder) Globs() []string {
	return append([]string(nil), e.globs...)
}

// Excluded reports whether path is explicitly excluded or its basename
// matches an exclude glob.
func (e *Excluder) Excluded(path string) bool {
	return e.explicit.Contains(path) || e.MatchName(filepath.Base(path))
}

// MatchName reports whether name matches any exclude glob.
func (e *Excluder) MatchName(name string) bool {
	matched := matchAny(e.matchers, name)
	if matched {
		slog.Debug("name matches exclude pattern", slog.String("name", name))
	}
	return matched
}

func matchAny(globs []string, name string) bool {
	for _, g := range globs {
		// Patterns are validated in NewExcluder, so the error is always nil.
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}
