package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Op is a bitmask describing what happened to an entry.
type Op uint8

const (
	// OpCreate indicates a new entry was created.
	OpCreate Op = 1 << iota
	// OpDelete indicates an entry was deleted or moved away.
	OpDelete
	// OpModify indicates file contents changed.
	OpModify
	// OpAttrib indicates metadata (permissions, timestamps) changed.
	OpAttrib
	// OpIsDir marks events whose entry is a directory.
	OpIsDir
)

var opNames = []struct {
	op   Op
	name string
}{
	{OpCreate, "CREATE"},
	{OpDelete, "DELETE"},
	{OpModify, "MODIFY"},
	{OpAttrib, "ATTRIB"},
	{OpIsDir, "ISDIR"},
}

// Has reports whether all bits of other are set in op.
func (op Op) Has(other Op) bool {
	return op&other == other
}

// String returns a human-readable representation such as "CREATE|ISDIR".
func (op Op) String() string {
	var parts []string
	for _, n := range opNames {
		if op.Has(n.op) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Event is a single change inside a watched directory.
type Event struct {
	// Dir is the watched directory the entry lives in.
	Dir string

	// Name is the affected entry's base name.
	Name string

	// Op is the set of event kinds.
	Op Op

	// Timestamp is when the event was read from the kernel.
	Timestamp time.Time
}

// Path returns the affected entry's absolute path.
func (e Event) Path() string {
	return filepath.Join(e.Dir, e.Name)
}

// Notifier installs and removes kernel watches. *fsnotify.Watcher
// satisfies it.
type Notifier interface {
	Add(name string) error
	Remove(name string) error
}

// Options configures the event source.
type Options struct {
	// QueueSize is the capacity of the queue between the producer and the
	// router. When the queue is full the producer blocks and further
	// notifications accumulate in the kernel buffer.
	// Default: 1024
	QueueSize int

	// NotifyBufferSize is the capacity of fsnotify's own Events channel.
	// Zero keeps fsnotify's unbuffered default.
	NotifyBufferSize uint
}

// DefaultOptions returns the default source options.
func DefaultOptions() Options {
	return Options{
		QueueSize: 1024,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.QueueSize <= 0 {
		o.QueueSize = defaults.QueueSize
	}
	return o
}
