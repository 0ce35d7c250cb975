package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ConsoleHandler writes records as "[LEVEL] 15:04:05: message key=value".
type ConsoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	styles map[slog.Level]lipgloss.Style
	prefix string
	attrs  []slog.Attr
}

// NewConsoleHandler returns a handler writing to w. When color is set the
// level tag is styled with lipgloss, which still drops escape codes if w
// is not a terminal.
func NewConsoleHandler(w io.Writer, level slog.Leveler, color bool) *ConsoleHandler {
	return &ConsoleHandler{
		mu:     &sync.Mutex{},
		w:      w,
		level:  level,
		styles: levelStyles(w, color),
	}
}

func levelStyles(w io.Writer, color bool) map[slog.Level]lipgloss.Style {
	plain := lipgloss.NewStyle()
	if !color {
		return map[slog.Level]lipgloss.Style{
			slog.LevelDebug: plain,
			slog.LevelInfo:  plain,
			LevelSuccess:    plain,
			slog.LevelWarn:  plain,
			slog.LevelError: plain,
		}
	}
	r := lipgloss.NewRenderer(w)
	return map[slog.Level]lipgloss.Style{
		slog.LevelDebug: r.NewStyle().Foreground(lipgloss.Color("245")),
		slog.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("39")),
		LevelSuccess:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("154")),
		slog.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("220")),
		slog.LevelError: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.styleFor(r.Level).Render("[" + LevelName(r.Level) + "]"))
	b.WriteByte(' ')
	if !r.Time.IsZero() {
		b.WriteString(r.Time.Format("15:04:05"))
		b.WriteString(": ")
	}
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *ConsoleHandler) styleFor(level slog.Level) lipgloss.Style {
	switch {
	case level < slog.LevelInfo:
		return h.styles[slog.LevelDebug]
	case level < LevelSuccess:
		return h.styles[slog.LevelInfo]
	case level < slog.LevelWarn:
		return h.styles[LevelSuccess]
	case level < slog.LevelError:
		return h.styles[slog.LevelWarn]
	default:
		return h.styles[slog.LevelError]
	}
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &next
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, group, ga)
		}
		return
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\"=") {
		val = fmt.Sprintf("%q", val)
	}
	fmt.Fprintf(b, " %s%s=%s", prefix, a.Key, val)
}
