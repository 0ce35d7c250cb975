// Package logging configures twsync's slog output: a human-readable console
// handler on stderr, and an optional JSON file log with size-based rotation
// that `twsync logs` can tail.
package logging
