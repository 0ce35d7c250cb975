package synclist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcluder_Excluded(t *testing.T) {
	explicit := ExcludeSet{}
	explicit.Add("/src/secret")

	e, err := NewExcluder(explicit, []string{"node_modules", ".unison*", "*.tmp"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"/src/secret", true},
		{"/src/secret/inner", false},
		{"/src/app/node_modules", true},
		{"/src/app/deep/node_modules", true},
		{"/src/app/.unison.tmp", true},
		{"/src/app/file.tmp", true},
		{"/src/app/main.go", false},
		{"/src/node_modules_backup", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Excluded(tt.path))
		})
	}
}

func TestExcluder_NegatedClass(t *testing.T) {
	// Given: an fnmatch-style negated class, as written in existing configs
	e, err := NewExcluder(nil, []string{"[!.]*.tmp"})
	require.NoError(t, err)

	// Then: it excludes names not starting with a dot
	assert.True(t, e.Excluded("/a/build.tmp"))
	assert.False(t, e.Excluded("/a/.hidden.tmp"))
	assert.False(t, e.Excluded("/a/build.go"))
	assert.Equal(t, []string{"[!.]*.tmp"}, e.Globs(), "declared patterns are kept verbatim")
}

func TestTranslateGlob(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"node_modules", "node_modules"},
		{"[!.]*", "[^.]*"},
		{"*.[!o]", "*.[^o]"},
		{"[a!]x", "[a!]x"},
		{"[!a][!b]", "[^a][^b]"},
		{`\[!x`, `\[!x`},
		{"[^x]", "[^x]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TranslateGlob(tt.in))
		})
	}
}

func TestNewExcluder_RejectsBadPattern(t *testing.T) {
	_, err := NewExcluder(nil, []string{"ok", "[bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[bad")
}

func TestExcludeSet_Under(t *testing.T) {
	s := ExcludeSet{}
	s.Add("/src/a/x")
	s.Add("/src/a/y/z")
	s.Add("/src/b")
	s.Add("/src/a")

	assert.Equal(t, []string{"x", "y/z"}, s.Under("/src/a"))
	assert.Equal(t, []string{"a", "a/x", "a/y/z", "b"}, s.Under("/src"))
	assert.Empty(t, s.Under("/other"))
}

func TestExcluder_Accessors(t *testing.T) {
	e, err := NewExcluder(nil, []string{"b", "a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, e.Globs())
	assert.NotNil(t, e.Explicit())
	assert.False(t, e.Excluded("/x/c"))
}
