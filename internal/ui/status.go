package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/disiqueira/gotree/v3"

	"github.com/Aman-CERP/twsync/internal/history"
	"github.com/Aman-CERP/twsync/internal/synclist"
)

// MappingEntry is one resolved mapping root and where it syncs to.
type MappingEntry struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
}

// ItemStatus is a sync item as written in the configuration.
type ItemStatus struct {
	Source  string `json:"source"`
	Dest    string `json:"dest,omitempty"`
	Enabled bool   `json:"enabled"`
}

// StatusInfo is everything `twsync status` reports.
type StatusInfo struct {
	ConfigPath  string         `json:"config_path"`
	DefaultSrc  string         `json:"default_src"`
	DefaultDest string         `json:"default_dest"`
	MergeTool   string         `json:"merge_tool"`
	Running     bool           `json:"running"`
	PID         int            `json:"pid,omitempty"`
	Items       []ItemStatus   `json:"items"`
	Mappings    []MappingEntry `json:"mappings"`
	Excluded    []string       `json:"excluded"`
	Globs       []string       `json:"exclude_globs"`
	Recent      []history.Run  `json:"recent,omitempty"`
}

// MappingEntries flattens m in lexical root order.
func MappingEntries(m synclist.Mapping) []MappingEntry {
	roots := m.Roots()
	entries := make([]MappingEntry, 0, len(roots))
	for _, root := range roots {
		entries = append(entries, MappingEntry{Source: root, Dest: m[root]})
	}
	return entries
}

// StatusRenderer displays synchronizer status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
	now    func() time.Time
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
		now:    time.Now,
	}
}

// Render displays status info to the terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	w := r.out
	s := r.styles

	_, _ = fmt.Fprintf(w, "%s\n\n", s.Header.Render("twsync Status"))

	_, _ = fmt.Fprintf(w, "  %s %s\n", s.Label.Render("Config:    "), info.ConfigPath)
	_, _ = fmt.Fprintf(w, "  %s %s\n", s.Label.Render("Merge tool:"), info.MergeTool)
	if info.Running {
		_, _ = fmt.Fprintf(w, "  %s %s (pid %d)\n", s.Label.Render("Daemon:    "), s.Success.Render("running"), info.PID)
	} else {
		_, _ = fmt.Fprintf(w, "  %s %s\n", s.Label.Render("Daemon:    "), s.Warning.Render("stopped"))
	}
	_, _ = fmt.Fprintln(w)

	if len(info.Items) > 0 {
		_, _ = fmt.Fprintln(w, "  Items:")
		for _, item := range info.Items {
			line := item.Source
			if item.Dest != "" {
				line += " -> " + item.Dest
			}
			if item.Enabled {
				_, _ = fmt.Fprintf(w, "    %s %s\n", s.Success.Render("+"), line)
			} else {
				_, _ = fmt.Fprintf(w, "    %s %s\n", s.Dim.Render("-"), s.Dim.Render(line+" (disabled)"))
			}
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "  Mappings (%d):\n", len(info.Mappings))
	if len(info.Mappings) == 0 {
		_, _ = fmt.Fprintf(w, "    %s\n", s.Warning.Render("none, nothing will be synchronized"))
	} else {
		_, _ = fmt.Fprint(w, indent(r.mappingTree(info.DefaultSrc, info.Mappings), "    "))
	}
	_, _ = fmt.Fprintln(w)

	if len(info.Excluded) > 0 {
		_, _ = fmt.Fprintln(w, "  Excluded:")
		for _, p := range info.Excluded {
			_, _ = fmt.Fprintf(w, "    %s\n", s.Dim.Render(p))
		}
	}
	if len(info.Globs) > 0 {
		_, _ = fmt.Fprintf(w, "  %s %s\n", s.Label.Render("Ignored names:"), strings.Join(info.Globs, ", "))
	}

	if len(info.Recent) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  Recent syncs:")
		for _, run := range info.Recent {
			_, _ = fmt.Fprintf(w, "    %-16s %s %s -> %s (%s)\n",
				formatTime(run.StartedAt, r.now()),
				r.renderRun(run),
				run.Source, run.Dest,
				run.Duration.Round(time.Millisecond))
		}
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// mappingTree draws mapping roots nested under their nearest mapped
// ancestor. Roots outside defaultSrc get their own top-level tree.
func (r *StatusRenderer) mappingTree(defaultSrc string, entries []MappingEntry) string {
	dests := make(map[string]string, len(entries))
	for _, e := range entries {
		dests[e.Source] = e.Dest
	}

	label := func(name, src string) string {
		if dest, ok := dests[src]; ok {
			return name + " -> " + r.styles.Path.Render(dest)
		}
		return name
	}

	top := gotree.New(label(defaultSrc, defaultSrc))
	nodes := map[string]gotree.Tree{defaultSrc: top}
	var extra []gotree.Tree

	for _, e := range entries {
		if e.Source == defaultSrc {
			continue
		}
		parent, parentPath := nearest(nodes, e.Source)
		if parent == nil {
			t := gotree.New(label(e.Source, e.Source))
			nodes[e.Source] = t
			extra = append(extra, t)
			continue
		}
		rel, err := filepath.Rel(parentPath, e.Source)
		if err != nil {
			rel = e.Source
		}
		nodes[e.Source] = parent.Add(label(rel, e.Source))
	}

	var b strings.Builder
	b.WriteString(top.Print())
	for _, t := range extra {
		b.WriteString(t.Print())
	}
	return b.String()
}

// nearest finds the closest strict ancestor of path present in nodes.
func nearest(nodes map[string]gotree.Tree, path string) (gotree.Tree, string) {
	for p := filepath.Dir(path); ; p = filepath.Dir(p) {
		if t, ok := nodes[p]; ok {
			return t, p
		}
		if p == filepath.Dir(p) {
			return nil, ""
		}
	}
}

func (r *StatusRenderer) renderRun(run history.Run) string {
	switch {
	case run.DryRun:
		return r.styles.Label.Render("dry-run")
	case run.Success:
		return r.styles.Success.Render("ok     ")
	default:
		return r.styles.Error.Render("failed ")
	}
}

func indent(text, prefix string) string {
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	return b.String()
}

// formatTime formats t relative to now.
func formatTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
