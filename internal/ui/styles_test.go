package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoColorStyles_RenderPlain(t *testing.T) {
	// Given: no color styles
	styles := NoColorStyles()

	// Then: every style renders text untouched
	for _, s := range []interface{ Render(...string) string }{
		styles.Header, styles.Success, styles.Warning, styles.Error,
		styles.Dim, styles.Label, styles.Path,
	} {
		assert.Equal(t, "text", s.Render("text"))
	}
}

func TestDefaultStyles_KeepText(t *testing.T) {
	// Given: default styles
	styles := DefaultStyles()

	// When: rendering
	rendered := styles.Header.Render("Test")

	// Then: the text survives styling
	assert.Contains(t, rendered, "Test")
}

func TestGetStyles_WithNoColor(t *testing.T) {
	// When: getting styles with noColor=true
	styles := GetStyles(true)

	// Then: returns no-color styles (plain rendering)
	assert.Equal(t, "test", styles.Success.Render("test"))
}

func TestGetStyles_WithColor(t *testing.T) {
	// When: getting styles with noColor=false
	styles := GetStyles(false)

	// Then: the text is present regardless of terminal support
	assert.Contains(t, styles.Success.Render("test"), "test")
}
